// Package adapter provides the outbound collaborators of the flag
// marketplace client: the REST API, the wallet/signer, the on-chain pricing
// contract and the IPFS gateway.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/flagmarket-client/internal/circuitbreaker"
	"github.com/flagmarket-client/internal/config"
	"github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/retry"
	"github.com/flagmarket-client/internal/types"
)

// MarketClient consumes the marketplace REST API. Reads are rate-limited
// and retried; mutations are sent exactly once and their failures are
// surfaced verbatim. A circuit breaker fails requests fast while the API
// is unreachable.
type MarketClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.Breaker
	retryCfg   *retry.Config
	logger     *logging.Logger
}

// NewMarketClient creates a new marketplace API client
func NewMarketClient(cfg *config.APIConfig, logger *logging.Logger) *MarketClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	retryCfg := retry.DefaultConfig()
	retryCfg.Retryable = errors.Retryable
	return &MarketClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker:    circuitbreaker.New(&circuitbreaker.Config{Name: "market_api", Logger: logger}),
		retryCfg:   retryCfg,
		logger:     logger.WithField("component", "market_client"),
	}
}

// apiErrorBody is the error envelope the backend returns on failure. The
// human-readable field is shown to the user verbatim.
type apiErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b apiErrorBody) userMessage() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// InterestRequest registers interest in a flag
type InterestRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// RecordClaimRequest persists a confirmed claim transaction
type RecordClaimRequest struct {
	WalletAddress string `json:"wallet_address"`
	TxHash        string `json:"tx_hash"`
}

// RecordPurchaseRequest persists a confirmed purchase transaction
type RecordPurchaseRequest struct {
	WalletAddress string `json:"wallet_address"`
	TxHash        string `json:"tx_hash"`
	AmountPaid    string `json:"amount_paid"`
}

// PlaceBidRequest places a bid on an auction
type PlaceBidRequest struct {
	WalletAddress  string             `json:"wallet_address"`
	Amount         decimal.Decimal    `json:"amount"`
	BidderCategory types.FlagCategory `json:"bidder_category"`
}

// BuyoutRequest buys out an auction at its buyout price
type BuyoutRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// ListCountries fetches the top level of the geographic hierarchy.
func (c *MarketClient) ListCountries(ctx context.Context) ([]models.Country, error) {
	var out []models.Country
	err := c.get(ctx, "/countries", nil, &out)
	return out, err
}

// ListRegions fetches the regions of a country.
func (c *MarketClient) ListRegions(ctx context.Context, countryID string) ([]models.Region, error) {
	var out []models.Region
	err := c.get(ctx, "/regions", url.Values{"country_id": {countryID}}, &out)
	return out, err
}

// ListMunicipalities fetches the municipalities of a region.
func (c *MarketClient) ListMunicipalities(ctx context.Context, regionID string) ([]models.Municipality, error) {
	var out []models.Municipality
	err := c.get(ctx, "/municipalities", url.Values{"region_id": {regionID}}, &out)
	return out, err
}

// ListFlags fetches flags, optionally scoped to a municipality.
func (c *MarketClient) ListFlags(ctx context.Context, municipalityID string) ([]models.Flag, error) {
	params := url.Values{}
	if municipalityID != "" {
		params.Set("municipality_id", municipalityID)
	}
	var out []models.Flag
	err := c.get(ctx, "/flags", params, &out)
	return out, err
}

// GetFlag fetches one flag with its interests and ownerships.
func (c *MarketClient) GetFlag(ctx context.Context, flagID string) (*models.Flag, error) {
	var out models.Flag
	if err := c.get(ctx, "/flags/"+flagID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShowInterest registers the wallet's interest in a flag.
func (c *MarketClient) ShowInterest(ctx context.Context, flagID, walletAddress string) (*models.Flag, error) {
	body := InterestRequest{WalletAddress: types.NormalizeAddress(walletAddress)}
	var out models.Flag
	if err := c.mutate(ctx, http.MethodPost, "/flags/"+flagID+"/interests", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordClaim persists a confirmed claim-first transaction hash. This is
// phase two of the claim flow; it must not be retried automatically because
// the on-chain effect already happened.
func (c *MarketClient) RecordClaim(ctx context.Context, flagID, walletAddress, txHash string) (*models.Flag, error) {
	body := RecordClaimRequest{
		WalletAddress: types.NormalizeAddress(walletAddress),
		TxHash:        txHash,
	}
	var out models.Flag
	if err := c.mutate(ctx, http.MethodPost, "/flags/"+flagID+"/claim", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordPurchase persists a confirmed purchase-second transaction hash.
func (c *MarketClient) RecordPurchase(ctx context.Context, flagID, walletAddress, txHash string, amountPaid decimal.Decimal) (*models.Flag, error) {
	body := RecordPurchaseRequest{
		WalletAddress: types.NormalizeAddress(walletAddress),
		TxHash:        txHash,
		AmountPaid:    amountPaid.String(),
	}
	var out models.Flag
	if err := c.mutate(ctx, http.MethodPost, "/flags/"+flagID+"/purchase", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAuctions fetches auctions, optionally filtered by status.
func (c *MarketClient) ListAuctions(ctx context.Context, status types.AuctionStatus) ([]models.Auction, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	var out []models.Auction
	err := c.get(ctx, "/auctions", params, &out)
	return out, err
}

// GetAuction fetches one auction with its bid history.
func (c *MarketClient) GetAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	var out models.Auction
	if err := c.get(ctx, "/auctions/"+auctionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceBid submits a bid. The server is the authority on races with
// concurrent higher bids; its rejection message reaches the caller verbatim.
func (c *MarketClient) PlaceBid(ctx context.Context, auctionID string, req PlaceBidRequest) (*models.Auction, error) {
	req.WalletAddress = types.NormalizeAddress(req.WalletAddress)
	var out models.Auction
	if err := c.mutate(ctx, http.MethodPost, "/auctions/"+auctionID+"/bids", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Buyout ends an auction instantly at its buyout price.
func (c *MarketClient) Buyout(ctx context.Context, auctionID, walletAddress string) (*models.Auction, error) {
	body := BuyoutRequest{WalletAddress: types.NormalizeAddress(walletAddress)}
	var out models.Auction
	if err := c.mutate(ctx, http.MethodPost, "/auctions/"+auctionID+"/buyout", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRankings fetches the collector leaderboard.
func (c *MarketClient) ListRankings(ctx context.Context) ([]models.RankingEntry, error) {
	var out []models.RankingEntry
	err := c.get(ctx, "/rankings", nil, &out)
	return out, err
}

// GetStats fetches the public marketplace statistics.
func (c *MarketClient) GetStats(ctx context.Context) (*models.MarketStats, error) {
	var out models.MarketStats
	if err := c.get(ctx, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches the marketplace profile for a wallet.
func (c *MarketClient) GetUser(ctx context.Context, walletAddress string) (*models.User, error) {
	var out models.User
	if err := c.get(ctx, "/users/"+types.NormalizeAddress(walletAddress), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs a rate-limited, retried GET. Only reads go through retry.
func (c *MarketClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return retry.WithBackoff(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		return c.do(ctx, http.MethodGet, path, params, nil, nil, out)
	})
}

// withReadRetry applies the client's read retry policy to fn.
func withReadRetry(ctx context.Context, c *MarketClient, fn func(ctx context.Context) error) error {
	return retry.WithBackoff(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		return fn(ctx)
	})
}

// mutate performs a write exactly once, tagged with an idempotency key so
// the server can dedupe a manual user re-trigger of the same action.
func (c *MarketClient) mutate(ctx context.Context, method, path string, body, out interface{}) error {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	return c.do(ctx, method, path, nil, body, headers, out)
}

func (c *MarketClient) do(ctx context.Context, method, path string, params url.Values, body interface{}, headers map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.breaker.Allow(); err != nil {
		return errors.NewNetworkError(err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.Failure()
		c.logger.WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		}).Warn("Marketplace API request failed")
		return errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	// an error status is still a reachable server
	c.breaker.Success()

	c.logger.WithFields(map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Marketplace API request")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeError extracts the server's human-readable message. The message is
// never rewritten; the user sees exactly what the server said.
func (c *MarketClient) decodeError(status int, raw []byte) error {
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := body.userMessage(); msg != "" {
			if status == http.StatusNotFound {
				return &errors.ClientError{
					Category: errors.CategoryNotFound,
					Code:     "NOT_FOUND",
					Message:  msg,
				}
			}
			return errors.NewAPIError(status, msg, nil)
		}
	}
	return errors.NewAPIError(status, "", nil)
}
