package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

func bid(t *testing.T, id, amount string, category types.FlagCategory, placedAt time.Time) models.Bid {
	t.Helper()
	return models.Bid{
		ID:             id,
		BidderID:       "bidder-" + id,
		Amount:         dec(t, amount),
		BidderCategory: category,
		CreatedAt:      placedAt,
	}
}

func TestLeadingBid(t *testing.T) {
	base := time.Now()

	t.Run("empty list has no leader", func(t *testing.T) {
		assert.Nil(t, LeadingBid(nil))
	})

	t.Run("highest amount wins", func(t *testing.T) {
		bids := []models.Bid{
			bid(t, "a", "0.05", types.CategoryPremium, base),
			bid(t, "b", "0.08", types.CategoryStandard, base.Add(time.Minute)),
			bid(t, "c", "0.06", types.CategoryPlus, base.Add(2*time.Minute)),
		}

		leader := LeadingBid(bids)

		require.NotNil(t, leader)
		assert.Equal(t, "b", leader.ID)
	})

	t.Run("equal amounts break on category rank", func(t *testing.T) {
		bids := []models.Bid{
			bid(t, "std", "0.08", types.CategoryStandard, base),
			bid(t, "prem", "0.08", types.CategoryPremium, base.Add(time.Minute)),
			bid(t, "plus", "0.08", types.CategoryPlus, base.Add(2*time.Minute)),
		}

		leader := LeadingBid(bids)

		require.NotNil(t, leader)
		assert.Equal(t, "prem", leader.ID)
	})

	t.Run("full tie goes to the earliest bid", func(t *testing.T) {
		bids := []models.Bid{
			bid(t, "late", "0.08", types.CategoryPlus, base.Add(time.Minute)),
			bid(t, "early", "0.08", types.CategoryPlus, base),
		}

		leader := LeadingBid(bids)

		require.NotNil(t, leader)
		assert.Equal(t, "early", leader.ID)
	})
}

func TestSortBids(t *testing.T) {
	base := time.Now()
	bids := []models.Bid{
		bid(t, "low", "0.01", types.CategoryPremium, base),
		bid(t, "tie-std", "0.05", types.CategoryStandard, base),
		bid(t, "tie-prem", "0.05", types.CategoryPremium, base),
		bid(t, "high", "0.09", types.CategoryStandard, base),
	}

	sorted := SortBids(bids)

	got := make([]string, len(sorted))
	for i, b := range sorted {
		got[i] = b.ID
	}
	assert.Equal(t, []string{"high", "tie-prem", "tie-std", "low"}, got)

	// input untouched
	assert.Equal(t, "low", bids[0].ID)
}

func TestLeaderIsStale(t *testing.T) {
	base := time.Now()

	t.Run("agreement is not stale", func(t *testing.T) {
		a := &models.Auction{
			HighestBidderID: "bidder-b",
			Bids: []models.Bid{
				bid(t, "a", "0.05", types.CategoryStandard, base),
				bid(t, "b", "0.08", types.CategoryStandard, base),
			},
		}
		assert.False(t, LeaderIsStale(a))
	})

	t.Run("disagreement signals staleness", func(t *testing.T) {
		a := &models.Auction{
			HighestBidderID: "bidder-z",
			Bids: []models.Bid{
				bid(t, "a", "0.05", types.CategoryStandard, base),
			},
		}
		assert.True(t, LeaderIsStale(a))
	})

	t.Run("server leader with no local bids is stale", func(t *testing.T) {
		a := &models.Auction{HighestBidderID: "bidder-z"}
		assert.True(t, LeaderIsStale(a))
	})

	t.Run("no server leader is never stale", func(t *testing.T) {
		a := &models.Auction{
			Bids: []models.Bid{bid(t, "a", "0.05", types.CategoryStandard, base)},
		}
		assert.False(t, LeaderIsStale(a))
	})
}
