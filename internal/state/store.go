package state

import (
	"github.com/flagmarket-client/internal/models"
)

// Store aggregates one slice per resource family. Collection slices survive
// navigation; the two detail slices are keyed to a single id and reset when
// the user moves to another detail view.
type Store struct {
	Countries      *Slice[[]models.Country]
	Regions        *Slice[[]models.Region]
	Municipalities *Slice[[]models.Municipality]
	Flags          *Slice[[]models.Flag]
	FlagDetail     *Slice[*models.Flag]
	Auctions       *Slice[[]models.Auction]
	AuctionDetail  *Slice[*models.Auction]
	Rankings       *Slice[[]models.RankingEntry]
	Stats          *Slice[*models.MarketStats]
}

// NewStore creates a store with all slices idle and empty.
func NewStore() *Store {
	return &Store{
		Countries:      NewSlice[[]models.Country](),
		Regions:        NewSlice[[]models.Region](),
		Municipalities: NewSlice[[]models.Municipality](),
		Flags:          NewSlice[[]models.Flag](),
		FlagDetail:     NewSlice[*models.Flag](),
		Auctions:       NewSlice[[]models.Auction](),
		AuctionDetail:  NewSlice[*models.Auction](),
		Rankings:       NewSlice[[]models.RankingEntry](),
		Stats:          NewSlice[*models.MarketStats](),
	}
}

// LeaveFlagDetail resets the flag detail slice on navigation so a late
// response for the previous flag cannot leak into the next view.
func (s *Store) LeaveFlagDetail() {
	s.FlagDetail.Reset()
}

// LeaveAuctionDetail resets the auction detail slice on navigation.
func (s *Store) LeaveAuctionDetail() {
	s.AuctionDetail.Reset()
}
