package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/types"
)

// Auction represents a secondary-market auction for a completed flag pair.
// While status is active and the end time has passed, the auction is
// "time-ended" but not terminal: it stays active until the backend runs its
// close operation, and the client renders a distinct awaiting-close state.
type Auction struct {
	ID                string              `json:"id"`
	FlagID            string              `json:"flag_id"`
	Status            types.AuctionStatus `json:"status"`
	StartingPrice     decimal.Decimal     `json:"starting_price"`
	MinPrice          decimal.Decimal     `json:"min_price"`
	BuyoutPrice       *decimal.Decimal    `json:"buyout_price,omitempty"`
	CurrentHighestBid *decimal.Decimal    `json:"current_highest_bid,omitempty"`
	HighestBidderID   string              `json:"highest_bidder_id,omitempty"`
	WinnerCategory    types.FlagCategory  `json:"winner_category,omitempty"`
	EndsAt            time.Time           `json:"ends_at"`
	Seller            Seller              `json:"seller"`
	Bids              []Bid               `json:"bids"`
	CreatedAt         time.Time           `json:"created_at"`
}

// Seller identifies the auction's seller by wallet address
type Seller struct {
	WalletAddress string `json:"wallet_address"`
}

// Bid represents a single bid on an auction
type Bid struct {
	ID             string             `json:"id"`
	AuctionID      string             `json:"auction_id"`
	Amount         decimal.Decimal    `json:"amount"`
	BidderCategory types.FlagCategory `json:"bidder_category"`
	BidderID       string             `json:"bidder_id"`
	CreatedAt      time.Time          `json:"created_at"`
}

// IsSeller reports whether the given wallet is the auction's seller.
func (a *Auction) IsSeller(walletAddress string) bool {
	return types.SameAddress(a.Seller.WalletAddress, walletAddress)
}
