package service

import (
	"context"
	stderrors "errors"
	"sync"

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

// FlagAPI is the subset of the marketplace API the flag flows use.
type FlagAPI interface {
	ListFlags(ctx context.Context, municipalityID string) ([]models.Flag, error)
	GetFlag(ctx context.Context, flagID string) (*models.Flag, error)
	ShowInterest(ctx context.Context, flagID, walletAddress string) (*models.Flag, error)
	RecordClaim(ctx context.Context, flagID, walletAddress, txHash string) (*models.Flag, error)
	RecordPurchase(ctx context.Context, flagID, walletAddress, txHash string, amountPaid decimal.Decimal) (*models.Flag, error)
}

// FlagService implements the acquisition flows: interest, the free first
// claim, and the priced second purchase. Claim and purchase are two-phase:
// the wallet signs and submits the transaction, then the resulting hash is
// recorded with the API. A signing failure aborts with nothing on-chain; a
// recording failure after a confirmed transaction is the distinct
// partial-failure state and is never retried automatically.
type FlagService struct {
	api    FlagAPI
	wallet adapter.Wallet
	pricer adapter.DiscountSource // nil when no pricing contract is configured
	cache  *storage.SnapshotCache
	store  *state.Store
	logger *logging.Logger

	// one mutating action per affordance at a time; this is UI-level
	// mutual exclusion, the server stays the arbiter of real races
	mu   sync.Mutex
	busy map[string]bool
}

// NewFlagService creates a flag service. wallet may be a disconnected
// implementation; pricer and cache may be nil.
func NewFlagService(api FlagAPI, wallet adapter.Wallet, pricer adapter.DiscountSource, cache *storage.SnapshotCache, store *state.Store, logger *logging.Logger) *FlagService {
	return &FlagService{
		api:    api,
		wallet: wallet,
		pricer: pricer,
		cache:  cache,
		store:  store,
		logger: logger.WithField("component", "flag_service"),
		busy:   make(map[string]bool),
	}
}

// ViewerAddress returns the connected wallet's normalized address, empty
// when no wallet is connected.
func (s *FlagService) ViewerAddress() string {
	if s.wallet == nil || !s.wallet.Connected() {
		return ""
	}
	return s.wallet.Address()
}

// RefreshFlags fetches the flag list and commits it to the store.
func (s *FlagService) RefreshFlags(ctx context.Context, municipalityID string) ([]models.Flag, error) {
	tok := s.store.Flags.Begin()
	flags, err := s.api.ListFlags(ctx, municipalityID)
	if err != nil {
		s.store.Flags.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Flags.Resolve(tok, flags)
	if s.cache != nil && municipalityID == "" {
		if err := s.cache.Put(ctx, storage.Key("flags"), flags); err != nil {
			s.logger.WithError(err).Warn("Failed to cache flags snapshot")
		}
	}
	return flags, nil
}

// LoadFlag fetches one flag into the detail slice. The slice's token guard
// discards the result if the user navigated away before it arrived.
func (s *FlagService) LoadFlag(ctx context.Context, flagID string) (*models.Flag, error) {
	tok := s.store.FlagDetail.Begin()
	flag, err := s.api.GetFlag(ctx, flagID)
	if err != nil {
		s.store.FlagDetail.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.FlagDetail.Resolve(tok, flag)
	return flag, nil
}

// QuoteFor builds the pricing quote for a flag. The discount lookup runs
// only when both a wallet and a pricing contract are present; a lookup
// failure degrades to the base price rather than blocking the purchase.
func (s *FlagService) QuoteFor(ctx context.Context, flag *models.Flag) market.Quote {
	viewer := s.ViewerAddress()
	if s.pricer == nil || viewer == "" {
		return market.NewQuote(flag.Price, nil, flag.NFTsRequired)
	}

	discounted, err := s.pricer.DiscountedUnitPrice(ctx, flag.ID, viewer)
	if err != nil {
		s.logger.WithError(err).WithField("flag", flag.ID).Warn("Discount lookup failed, using base price")
		return market.NewQuote(flag.Price, nil, flag.NFTsRequired)
	}
	return market.NewQuote(flag.Price, discounted, flag.NFTsRequired)
}

// ShowInterest registers the viewer's interest in a flag. Interest is
// advisory: it feeds the reveal gate but is never a precondition to claim.
func (s *FlagService) ShowInterest(ctx context.Context, flagID string) (*models.Flag, error) {
	viewer := s.ViewerAddress()
	if viewer == "" {
		return nil, errors.NewValidationError("connect a wallet to show interest")
	}
	if err := s.begin("interest:" + flagID); err != nil {
		return nil, err
	}
	defer s.end("interest:" + flagID)

	flag, err := s.api.ShowInterest(ctx, flagID, viewer)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, flagID)
	return flag, nil
}

// ClaimFirst claims the first NFT of a flag, free of charge. Prior interest
// is not required.
func (s *FlagService) ClaimFirst(ctx context.Context, flagID string) (*models.Flag, error) {
	viewer := s.ViewerAddress()
	if viewer == "" {
		return nil, errors.NewValidationError("connect a wallet to claim")
	}

	flag, err := s.api.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if st := market.FlagStateOf(flag); st != types.FlagFirstOpen {
		return nil, errors.NewValidationError("the first NFT of this flag is no longer available")
	}

	if err := s.begin("claim:" + flagID); err != nil {
		return nil, err
	}
	defer s.end("claim:" + flagID)

	// phase one: sign and submit on-chain; failure here means nothing
	// happened and the flow simply aborts
	txHash, err := s.wallet.SignClaim(ctx, flagID)
	if err != nil {
		return nil, err
	}

	// phase two: record the confirmed transaction. A failure here is the
	// partial state: the chain moved, the server did not. Surface it with
	// the hash and leave the retry to the user.
	updated, err := s.api.RecordClaim(ctx, flagID, viewer, txHash)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"flag": flagID,
			"tx":   txHash,
		}).Error("Claim transaction confirmed but recording failed")
		return nil, errors.NewRecordingError(txHash, err)
	}

	s.afterMutation(ctx, flagID)
	return updated, nil
}

// PurchaseSecond purchases the second NFT of a flag at the quoted total,
// using the discounted unit price when one applies.
func (s *FlagService) PurchaseSecond(ctx context.Context, flagID string) (*models.Flag, error) {
	viewer := s.ViewerAddress()
	if viewer == "" {
		return nil, errors.NewValidationError("connect a wallet to purchase")
	}

	flag, err := s.api.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if st := market.FlagStateOf(flag); st != types.FlagSecondOpen {
		return nil, errors.NewValidationError("the second NFT of this flag is not open for purchase")
	}

	if err := s.begin("purchase:" + flagID); err != nil {
		return nil, err
	}
	defer s.end("purchase:" + flagID)

	quote := s.QuoteFor(ctx, flag)
	total := quote.EffectiveTotal()

	txHash, err := s.wallet.SignPurchase(ctx, flagID, total)
	if err != nil {
		return nil, err
	}

	updated, err := s.api.RecordPurchase(ctx, flagID, viewer, txHash, total)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"flag": flagID,
			"tx":   txHash,
		}).Error("Purchase transaction confirmed but recording failed")
		return nil, errors.NewRecordingError(txHash, err)
	}

	s.afterMutation(ctx, flagID)
	return updated, nil
}

// afterMutation refetches the affected state so the mirror only ever holds
// confirmed server truth, and drops the stale cached snapshots.
func (s *FlagService) afterMutation(ctx context.Context, flagID string) {
	if s.cache != nil {
		if err := s.cache.InvalidateFamily(ctx, "flags"); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate flags snapshots")
		}
	}
	if _, err := s.LoadFlag(ctx, flagID); err != nil {
		s.logger.WithError(err).WithField("flag", flagID).Warn("Refetch after mutation failed")
	}
	if _, err := s.RefreshFlags(ctx, ""); err != nil {
		s.logger.WithError(err).Warn("Flag list refetch after mutation failed")
	}
}

func (s *FlagService) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[key] {
		return errors.NewValidationError("this action is already in progress")
	}
	s.busy[key] = true
	return nil
}

func (s *FlagService) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, key)
}

// userMessage extracts the displayable message from an error.
func userMessage(err error) string {
	var ce *errors.ClientError
	if stderrors.As(err, &ce) {
		return ce.UserMessage()
	}
	return err.Error()
}
