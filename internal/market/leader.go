package market

import (
	"github.com/flagmarket-client/internal/models"
)

// LeadingBid returns the bid the client would display as leading: greatest
// amount, ties broken by bidder category rank (premium > plus > standard),
// remaining ties by earliest placement. Returns nil for an empty list.
//
// This ordering is advisory, for display only. The authoritative leader is
// whatever the server reports in highest_bidder_id.
func LeadingBid(bids []models.Bid) *models.Bid {
	var leader *models.Bid
	for i := range bids {
		b := &bids[i]
		if leader == nil || outbids(b, leader) {
			leader = b
		}
	}
	return leader
}

// outbids reports whether a beats b under the display ordering.
func outbids(a, b *models.Bid) bool {
	if !a.Amount.Equal(b.Amount) {
		return a.Amount.GreaterThan(b.Amount)
	}
	if a.BidderCategory.Rank() != b.BidderCategory.Rank() {
		return a.BidderCategory.Rank() > b.BidderCategory.Rank()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// SortBids orders bids for display, best first, using the same rule as
// LeadingBid. The input is not modified.
func SortBids(bids []models.Bid) []models.Bid {
	sorted := make([]models.Bid, len(bids))
	copy(sorted, bids)
	// insertion sort; bid lists are small
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && outbids(&sorted[j], &sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

// LeaderIsStale reports whether the client's computed leader disagrees with
// the server-declared one. A disagreement is a staleness signal: the caller
// must refetch the auction, never override the server locally.
func LeaderIsStale(auction *models.Auction) bool {
	if auction == nil || auction.HighestBidderID == "" {
		return false
	}
	leader := LeadingBid(auction.Bids)
	if leader == nil {
		// server says someone leads but we hold no bids: stale snapshot
		return true
	}
	return leader.BidderID != auction.HighestBidderID
}
