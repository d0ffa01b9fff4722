// Package types provides common type definitions for the flag marketplace client.
package types

import "strings"

// FlagCategory represents the rarity tier of a flag
type FlagCategory string

const (
	// CategoryStandard represents the base flag tier
	CategoryStandard FlagCategory = "standard"
	// CategoryPlus represents the mid flag tier
	CategoryPlus FlagCategory = "plus"
	// CategoryPremium represents the top flag tier
	CategoryPremium FlagCategory = "premium"
)

// Rank returns the ordering weight of a category for bid tie-breaking.
// premium > plus > standard; unknown categories rank below standard.
func (c FlagCategory) Rank() int {
	switch c {
	case CategoryPremium:
		return 3
	case CategoryPlus:
		return 2
	case CategoryStandard:
		return 1
	default:
		return 0
	}
}

// NFTStatus represents the acquisition status of one NFT of a pair
type NFTStatus string

const (
	// NFTAvailable means the NFT has not been claimed or purchased yet
	NFTAvailable NFTStatus = "available"
	// NFTClaimed means the NFT has been claimed or purchased
	NFTClaimed NFTStatus = "claimed"
)

// AuctionStatus represents the server-reported lifecycle state of an auction
type AuctionStatus string

const (
	// AuctionActive represents a running auction
	AuctionActive AuctionStatus = "active"
	// AuctionClosed represents a settled auction
	AuctionClosed AuctionStatus = "closed"
	// AuctionCancelled represents a cancelled auction
	AuctionCancelled AuctionStatus = "cancelled"
)

// FlagState represents the acquisition state of a flag as seen by the client
type FlagState string

const (
	// FlagComplete means both NFTs of the pair are claimed; no action remains
	FlagComplete FlagState = "complete"
	// FlagFirstOpen means the first NFT is still available
	FlagFirstOpen FlagState = "first_open"
	// FlagSecondOpen means the first NFT is claimed and the second is available
	FlagSecondOpen FlagState = "second_open"
	// FlagBlocked is the inert fallback for inconsistent server data
	FlagBlocked FlagState = "blocked"
)

// FlagAction represents an acquisition action the viewer may take on a flag
type FlagAction string

const (
	// ActionShowInterest registers advisory interest in a flag
	ActionShowInterest FlagAction = "show_interest"
	// ActionClaimFirst claims the first NFT free of charge
	ActionClaimFirst FlagAction = "claim_first"
	// ActionPurchaseSecond purchases the second NFT at the quoted total
	ActionPurchaseSecond FlagAction = "purchase_second"
)

// AuctionState represents the auction state as seen by a specific viewer
type AuctionState string

const (
	// AuctionTerminal means the auction is closed or cancelled
	AuctionTerminal AuctionState = "terminal"
	// AuctionTimeEnded means the auction is past its end time but not yet closed
	AuctionTimeEnded AuctionState = "time_ended"
	// AuctionOwn means the viewer is the seller and cannot bid
	AuctionOwn AuctionState = "own_auction"
	// AuctionOpen means the viewer may bid (and buy out, if offered)
	AuctionOpen AuctionState = "open"
)

// AuctionAction represents an action the viewer may take on an auction
type AuctionAction string

const (
	// ActionPlaceBid places a bid at or above the computed minimum
	ActionPlaceBid AuctionAction = "place_bid"
	// ActionBuyout ends the auction instantly at the buyout price
	ActionBuyout AuctionAction = "buyout"
)

// NormalizeAddress lower-cases a wallet address so that all comparisons in
// client state are case-insensitive. Addresses pass through here at the
// boundary where they enter client state; nothing else compares raw strings.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// SameAddress reports whether two wallet addresses refer to the same account.
// An empty address never matches anything, including another empty address.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeAddress(a) == NormalizeAddress(b)
}
