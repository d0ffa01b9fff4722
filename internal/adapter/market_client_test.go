package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagmarket-client/internal/config"
	clierrors "github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

func testClient(t *testing.T, handler http.Handler) (*MarketClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logging.NewLogger(logging.LevelError, logging.FormatText)
	client := NewMarketClient(&config.APIConfig{
		BaseURL:           server.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 100,
	}, logger)
	return client, server
}

func TestListFlags(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flags", r.URL.Path)
		assert.Equal(t, "m-1", r.URL.Query().Get("municipality_id"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		_ = json.NewEncoder(w).Encode([]models.Flag{
			{ID: "flag-1", Price: decimal.RequireFromString("0.02"), NFTsRequired: 1},
		})
	}))

	flags, err := client.ListFlags(context.Background(), "m-1")

	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "flag-1", flags[0].ID)
	assert.Equal(t, "0.02", flags[0].Price.String())
}

func TestGetFlagNotFound(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "flag does not exist"})
	}))

	_, err := client.GetFlag(context.Background(), "nope")

	require.Error(t, err)
	var ce *clierrors.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierrors.CategoryNotFound, ce.Category)
	assert.Equal(t, "flag does not exist", ce.Message)
}

// The server's rejection message must reach the caller verbatim, never
// rewritten or masked.
func TestServerErrorSurfacedVerbatim(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"detail": "bid of 0.08 was outbid by a concurrent bid of 0.09",
		})
	}))

	_, err := client.PlaceBid(context.Background(), "a-1", PlaceBidRequest{
		WalletAddress:  "0xBIDDER",
		Amount:         decimal.RequireFromString("0.08"),
		BidderCategory: types.CategoryPlus,
	})

	require.Error(t, err)
	var ce *clierrors.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierrors.CategoryAPI, ce.Category)
	assert.Equal(t, "bid of 0.08 was outbid by a concurrent bid of 0.09", ce.Message)
}

func TestMutationsCarryIdempotencyKeyAndNormalizedAddress(t *testing.T) {
	var gotKey string
	var gotBody RecordClaimRequest
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(models.Flag{ID: "flag-1"})
	}))

	_, err := client.RecordClaim(context.Background(), "flag-1", "0xAbCd00000000000000000000000000000000EF12", "0xhash")

	require.NoError(t, err)
	assert.NotEmpty(t, gotKey)
	assert.Equal(t, "0xabcd00000000000000000000000000000000ef12", gotBody.WalletAddress)
	assert.Equal(t, "0xhash", gotBody.TxHash)
}

// Mutations must be sent exactly once: a failed write is terminal, the
// manual re-trigger is the user's.
func TestMutationsAreNotRetried(t *testing.T) {
	calls := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "upstream broke"})
	}))

	_, err := client.ShowInterest(context.Background(), "flag-1", "0xviewer")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAdminClient(t *testing.T) {
	t.Run("requires a key", func(t *testing.T) {
		client, _ := testClient(t, http.NotFoundHandler())
		_, err := NewAdminClient(client, "")
		require.Error(t, err)
	})

	t.Run("sends the shared secret header", func(t *testing.T) {
		var gotKey string
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-Admin-Key")
			assert.Equal(t, "/admin/seed", r.URL.Path)
			_ = json.NewEncoder(w).Encode(SeedResult{Countries: 2, Flags: 10})
		}))

		admin, err := NewAdminClient(client, "s3cret")
		require.NoError(t, err)

		result, err := admin.SeedDemoData(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "s3cret", gotKey)
		assert.Equal(t, 10, result.Flags)
	})

	t.Run("admin error detail is surfaced verbatim", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid admin key"})
		}))

		admin, err := NewAdminClient(client, "wrong")
		require.NoError(t, err)

		_, err = admin.TriggerIPFSSync(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid admin key")
	})
}

func TestGetAuctionDecodesOptionalFields(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "a-1",
			"flag_id": "flag-1",
			"status": "active",
			"starting_price": "0.05",
			"min_price": "0.05",
			"current_highest_bid": "0.08",
			"ends_at": "2031-01-01T00:00:00Z",
			"seller": {"wallet_address": "0xseller"},
			"bids": []
		}`))
	}))

	auction, err := client.GetAuction(context.Background(), "a-1")

	require.NoError(t, err)
	assert.Nil(t, auction.BuyoutPrice)
	require.NotNil(t, auction.CurrentHighestBid)
	assert.Equal(t, "0.08", auction.CurrentHighestBid.String())
	assert.Equal(t, types.AuctionActive, auction.Status)
}
