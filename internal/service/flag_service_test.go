package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/state"
	"github.com/flagmarket-client/internal/types"
)

// Mock flag API for testing
type mockFlagAPI struct {
	flags          map[string]*models.Flag
	recordClaimFn  func(ctx context.Context, flagID, wallet, txHash string) (*models.Flag, error)
	recordBuyFn    func(ctx context.Context, flagID, wallet, txHash string, amount decimal.Decimal) (*models.Flag, error)
	interestCalls  int
	claimCalls     int
	purchaseCalls  int
	listCalls      int
	lastPurchase   decimal.Decimal
	lastClaimTx    string
	lastPurchaseTx string
}

func (m *mockFlagAPI) ListFlags(ctx context.Context, municipalityID string) ([]models.Flag, error) {
	m.listCalls++
	out := make([]models.Flag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, *f)
	}
	return out, nil
}

func (m *mockFlagAPI) GetFlag(ctx context.Context, flagID string) (*models.Flag, error) {
	if f, ok := m.flags[flagID]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, clierrors.NewNotFoundError("flag", flagID)
}

func (m *mockFlagAPI) ShowInterest(ctx context.Context, flagID, wallet string) (*models.Flag, error) {
	m.interestCalls++
	f, err := m.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	f.Interests = append(f.Interests, models.Interest{UserWalletAddress: wallet})
	m.flags[flagID] = f
	return f, nil
}

func (m *mockFlagAPI) RecordClaim(ctx context.Context, flagID, wallet, txHash string) (*models.Flag, error) {
	m.claimCalls++
	m.lastClaimTx = txHash
	if m.recordClaimFn != nil {
		return m.recordClaimFn(ctx, flagID, wallet, txHash)
	}
	f, err := m.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	f.FirstNFTStatus = types.NFTClaimed
	m.flags[flagID] = f
	return f, nil
}

func (m *mockFlagAPI) RecordPurchase(ctx context.Context, flagID, wallet, txHash string, amount decimal.Decimal) (*models.Flag, error) {
	m.purchaseCalls++
	m.lastPurchaseTx = txHash
	m.lastPurchase = amount
	if m.recordBuyFn != nil {
		return m.recordBuyFn(ctx, flagID, wallet, txHash, amount)
	}
	f, err := m.GetFlag(ctx, flagID)
	if err != nil {
		return nil, err
	}
	f.IsPairComplete = true
	m.flags[flagID] = f
	return f, nil
}

// Stub wallet capability for testing
type stubWallet struct {
	address        string
	signClaimFn    func(ctx context.Context, flagID string) (string, error)
	signPurchaseFn func(ctx context.Context, flagID string, total decimal.Decimal) (string, error)
	lastTotal      decimal.Decimal
}

func (w *stubWallet) Connected() bool { return w.address != "" }
func (w *stubWallet) Address() string { return types.NormalizeAddress(w.address) }
func (w *stubWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1"), nil
}

func (w *stubWallet) SignClaim(ctx context.Context, flagID string) (string, error) {
	if w.signClaimFn != nil {
		return w.signClaimFn(ctx, flagID)
	}
	return "0xclaimtx", nil
}

func (w *stubWallet) SignPurchase(ctx context.Context, flagID string, total decimal.Decimal) (string, error) {
	w.lastTotal = total
	if w.signPurchaseFn != nil {
		return w.signPurchaseFn(ctx, flagID, total)
	}
	return "0xbuytx", nil
}

// Stub discount source
type stubPricer struct {
	price *decimal.Decimal
	err   error
}

func (p *stubPricer) DiscountedUnitPrice(ctx context.Context, flagID, viewer string) (*decimal.Decimal, error) {
	return p.price, p.err
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelFatal, logging.FormatText)
}

func firstOpenFlag(price string) *models.Flag {
	return &models.Flag{
		ID:             "flag-1",
		Price:          decimal.RequireFromString(price),
		NFTsRequired:   1,
		FirstNFTStatus: types.NFTAvailable,
	}
}

func secondOpenFlag(price string, n int) *models.Flag {
	second := types.NFTAvailable
	return &models.Flag{
		ID:              "flag-1",
		Price:           decimal.RequireFromString(price),
		NFTsRequired:    n,
		FirstNFTStatus:  types.NFTClaimed,
		SecondNFTStatus: &second,
	}
}

func TestShowInterestRequiresWallet(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	svc := NewFlagService(api, &stubWallet{}, nil, nil, state.NewStore(), testLogger())

	_, err := svc.ShowInterest(context.Background(), "flag-1")

	require.Error(t, err)
	assert.True(t, clierrors.IsValidation(err))
	assert.Zero(t, api.interestCalls)
}

func TestShowInterestRefetches(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	store := state.NewStore()
	svc := NewFlagService(api, &stubWallet{address: "0xViewer"}, nil, nil, store, testLogger())

	flag, err := svc.ShowInterest(context.Background(), "flag-1")

	require.NoError(t, err)
	assert.True(t, flag.HasInterest("0xviewer"))
	// mutation success refetches detail and list
	detail, ok := store.FlagDetail.Data()
	require.True(t, ok)
	assert.Equal(t, "flag-1", detail.ID)
	assert.Equal(t, 1, api.listCalls)
}

func TestClaimFirstHappyPath(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	wallet := &stubWallet{address: "0xviewer"}
	svc := NewFlagService(api, wallet, nil, nil, state.NewStore(), testLogger())

	updated, err := svc.ClaimFirst(context.Background(), "flag-1")

	require.NoError(t, err)
	assert.Equal(t, types.NFTClaimed, updated.FirstNFTStatus)
	assert.Equal(t, "0xclaimtx", api.lastClaimTx)
}

func TestClaimFirstNeedsNoPriorInterest(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	svc := NewFlagService(api, &stubWallet{address: "0xviewer"}, nil, nil, state.NewStore(), testLogger())

	_, err := svc.ClaimFirst(context.Background(), "flag-1")

	require.NoError(t, err)
	assert.Zero(t, api.interestCalls)
}

func TestClaimFirstSigningFailureAborts(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	wallet := &stubWallet{
		address: "0xviewer",
		signClaimFn: func(ctx context.Context, flagID string) (string, error) {
			return "", clierrors.NewWalletError("user rejected the transaction", nil)
		},
	}
	svc := NewFlagService(api, wallet, nil, nil, state.NewStore(), testLogger())

	_, err := svc.ClaimFirst(context.Background(), "flag-1")

	require.Error(t, err)
	assert.Equal(t, clierrors.CategoryWallet, clierrors.CategoryOf(err))
	// phase two never ran: nothing to compensate
	assert.Zero(t, api.claimCalls)
}

func TestClaimFirstRecordingFailureIsPartial(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	api.recordClaimFn = func(ctx context.Context, flagID, wallet, txHash string) (*models.Flag, error) {
		return nil, clierrors.NewAPIError(500, "database unavailable", nil)
	}
	svc := NewFlagService(api, &stubWallet{address: "0xviewer"}, nil, nil, state.NewStore(), testLogger())

	_, err := svc.ClaimFirst(context.Background(), "flag-1")

	require.Error(t, err)
	require.True(t, clierrors.IsRecording(err))
	var ce *clierrors.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "0xclaimtx", ce.TxHash)
	assert.Contains(t, ce.UserMessage(), "0xclaimtx")
	// exactly one recording attempt; no automatic retry
	assert.Equal(t, 1, api.claimCalls)
}

func TestClaimFirstWrongState(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": secondOpenFlag("0.01", 1)}}
	svc := NewFlagService(api, &stubWallet{address: "0xviewer"}, nil, nil, state.NewStore(), testLogger())

	_, err := svc.ClaimFirst(context.Background(), "flag-1")

	require.Error(t, err)
	assert.True(t, clierrors.IsValidation(err))
}

func TestPurchaseSecondUsesDiscountedTotal(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": secondOpenFlag("0.01", 3)}}
	wallet := &stubWallet{address: "0xviewer"}
	discounted := decimal.RequireFromString("0.005")
	svc := NewFlagService(api, wallet, &stubPricer{price: &discounted}, nil, state.NewStore(), testLogger())

	_, err := svc.PurchaseSecond(context.Background(), "flag-1")

	require.NoError(t, err)
	assert.Equal(t, "0.015", wallet.lastTotal.String())
	assert.Equal(t, "0.015", api.lastPurchase.String())
}

func TestPurchaseSecondDiscountLookupFailureFallsBack(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": secondOpenFlag("0.02", 1)}}
	wallet := &stubWallet{address: "0xviewer"}
	svc := NewFlagService(api, wallet, &stubPricer{err: clierrors.NewNetworkError(nil)}, nil, state.NewStore(), testLogger())

	_, err := svc.PurchaseSecond(context.Background(), "flag-1")

	require.NoError(t, err)
	assert.Equal(t, "0.02", wallet.lastTotal.String())
}

func TestPurchaseSecondRecordingFailureIsPartial(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": secondOpenFlag("0.02", 1)}}
	api.recordBuyFn = func(ctx context.Context, flagID, wallet, txHash string, amount decimal.Decimal) (*models.Flag, error) {
		return nil, clierrors.NewAPIError(502, "gateway error", nil)
	}
	svc := NewFlagService(api, &stubWallet{address: "0xviewer"}, nil, nil, state.NewStore(), testLogger())

	_, err := svc.PurchaseSecond(context.Background(), "flag-1")

	require.True(t, clierrors.IsRecording(err))
	assert.Equal(t, 1, api.purchaseCalls)
}

func TestQuoteForWithoutWalletSkipsDiscount(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{}}
	discounted := decimal.RequireFromString("0.005")
	svc := NewFlagService(api, &stubWallet{}, &stubPricer{price: &discounted}, nil, state.NewStore(), testLogger())

	q := svc.QuoteFor(context.Background(), secondOpenFlag("0.01", 3))

	assert.False(t, q.HasDiscount())
	assert.Equal(t, "0.03", q.EffectiveTotal().String())
}

func TestClaimFirstBusyGuard(t *testing.T) {
	api := &mockFlagAPI{flags: map[string]*models.Flag{"flag-1": firstOpenFlag("0.01")}}
	entered := make(chan struct{})
	release := make(chan struct{})
	wallet := &stubWallet{
		address: "0xviewer",
		signClaimFn: func(ctx context.Context, flagID string) (string, error) {
			close(entered)
			<-release
			return "0xclaimtx", nil
		},
	}
	svc := NewFlagService(api, wallet, nil, nil, state.NewStore(), testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.ClaimFirst(context.Background(), "flag-1")
		done <- err
	}()

	<-entered
	// the same affordance is disabled while its action is in flight
	_, err := svc.ClaimFirst(context.Background(), "flag-1")
	require.Error(t, err)
	assert.True(t, clierrors.IsValidation(err))

	close(release)
	require.NoError(t, <-done)
}
