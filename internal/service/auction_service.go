package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/adapter"
	"github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/market"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/state"
	"github.com/flagmarket-client/internal/storage"
	"github.com/flagmarket-client/internal/types"
)

// AuctionAPI is the subset of the marketplace API the auction flows use.
type AuctionAPI interface {
	ListAuctions(ctx context.Context, status types.AuctionStatus) ([]models.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)
	PlaceBid(ctx context.Context, auctionID string, req adapter.PlaceBidRequest) (*models.Auction, error)
	Buyout(ctx context.Context, auctionID, walletAddress string) (*models.Auction, error)
}

// AuctionService implements bidding and buyout. Bids are validated locally
// against the computed minimum before any network call; the server stays
// the authority on races and its rejections reach the user verbatim.
type AuctionService struct {
	api       AuctionAPI
	wallet    adapter.Wallet
	cache     *storage.SnapshotCache
	store     *state.Store
	increment decimal.Decimal
	logger    *logging.Logger
	now       func() time.Time

	mu   sync.Mutex
	busy map[string]bool
}

// NewAuctionService creates an auction service using the configured bid
// increment.
func NewAuctionService(api AuctionAPI, wallet adapter.Wallet, cache *storage.SnapshotCache, store *state.Store, increment decimal.Decimal, logger *logging.Logger) *AuctionService {
	return &AuctionService{
		api:       api,
		wallet:    wallet,
		cache:     cache,
		store:     store,
		increment: increment,
		logger:    logger.WithField("component", "auction_service"),
		now:       time.Now,
		busy:      make(map[string]bool),
	}
}

// ViewerAddress returns the connected wallet's normalized address, empty
// when no wallet is connected.
func (s *AuctionService) ViewerAddress() string {
	if s.wallet == nil || !s.wallet.Connected() {
		return ""
	}
	return s.wallet.Address()
}

// RefreshAuctions fetches the auction list and commits it to the store.
func (s *AuctionService) RefreshAuctions(ctx context.Context, status types.AuctionStatus) ([]models.Auction, error) {
	tok := s.store.Auctions.Begin()
	auctions, err := s.api.ListAuctions(ctx, status)
	if err != nil {
		s.store.Auctions.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Auctions.Resolve(tok, auctions)
	if s.cache != nil && status == "" {
		if err := s.cache.Put(ctx, storage.Key("auctions"), auctions); err != nil {
			s.logger.WithError(err).Warn("Failed to cache auctions snapshot")
		}
	}
	return auctions, nil
}

// LoadAuction fetches one auction into the detail slice. When the locally
// computed leader disagrees with the server-declared one, the snapshot is
// treated as stale and fetched once more; the server's answer always wins.
func (s *AuctionService) LoadAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	tok := s.store.AuctionDetail.Begin()
	auction, err := s.api.GetAuction(ctx, auctionID)
	if err != nil {
		s.store.AuctionDetail.Fail(tok, userMessage(err))
		return nil, err
	}

	if market.LeaderIsStale(auction) {
		s.logger.WithField("auction", auctionID).Info("Leader mismatch in snapshot, refetching")
		if fresh, err := s.api.GetAuction(ctx, auctionID); err == nil {
			auction = fresh
		}
	}

	s.store.AuctionDetail.Resolve(tok, auction)
	return auction, nil
}

// MinimumBidFor returns the lowest bid the client will submit for an auction.
func (s *AuctionService) MinimumBidFor(auction *models.Auction) decimal.Decimal {
	return market.MinimumBid(auction, s.increment)
}

// PlaceBid validates and submits a bid. bidderCategory is the viewer's
// chosen tier, used server-side only to break amount ties.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID string, amount decimal.Decimal, bidderCategory types.FlagCategory) (*models.Auction, error) {
	viewer := s.ViewerAddress()
	if viewer == "" {
		return nil, errors.NewValidationError("connect a wallet to bid")
	}

	auction, err := s.api.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := market.ValidateBid(auction, viewer, amount, s.increment, s.now()); err != nil {
		return nil, err
	}

	if err := s.begin("bid:" + auctionID); err != nil {
		return nil, err
	}
	defer s.end("bid:" + auctionID)

	updated, err := s.api.PlaceBid(ctx, auctionID, adapter.PlaceBidRequest{
		WalletAddress:  viewer,
		Amount:         amount,
		BidderCategory: bidderCategory,
	})
	if err != nil {
		// a concurrent higher bid or any other server rejection is
		// authoritative; pass it through untouched
		return nil, err
	}

	s.afterMutation(ctx, auctionID)
	return updated, nil
}

// Buyout ends an auction instantly at its buyout price.
func (s *AuctionService) Buyout(ctx context.Context, auctionID string) (*models.Auction, error) {
	viewer := s.ViewerAddress()
	if viewer == "" {
		return nil, errors.NewValidationError("connect a wallet to buy out")
	}

	auction, err := s.api.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := market.ValidateBuyout(auction, viewer, s.now()); err != nil {
		return nil, err
	}

	if err := s.begin("buyout:" + auctionID); err != nil {
		return nil, err
	}
	defer s.end("buyout:" + auctionID)

	updated, err := s.api.Buyout(ctx, auctionID, viewer)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, auctionID)
	return updated, nil
}

func (s *AuctionService) afterMutation(ctx context.Context, auctionID string) {
	if s.cache != nil {
		if err := s.cache.InvalidateFamily(ctx, "auctions"); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate auction snapshots")
		}
	}
	if _, err := s.LoadAuction(ctx, auctionID); err != nil {
		s.logger.WithError(err).WithField("auction", auctionID).Warn("Refetch after mutation failed")
	}
	if _, err := s.RefreshAuctions(ctx, ""); err != nil {
		s.logger.WithError(err).Warn("Auction list refetch after mutation failed")
	}
}

func (s *AuctionService) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[key] {
		return errors.NewValidationError("this action is already in progress")
	}
	s.busy[key] = true
	return nil
}

func (s *AuctionService) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, key)
}
