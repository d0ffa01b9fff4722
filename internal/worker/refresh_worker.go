// Package worker implements the background refresh loop that keeps the
// state mirror close to the server while the client is open.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

// AuctionRefresher fetches auctions into the state mirror.
type AuctionRefresher interface {
	RefreshAuctions(ctx context.Context, status types.AuctionStatus) ([]models.Auction, error)
}

// FlagRefresher fetches flags into the state mirror.
type FlagRefresher interface {
	RefreshFlags(ctx context.Context, municipalityID string) ([]models.Flag, error)
}

// LeaderChange describes a change of the highest bidder on an auction
// between two polls.
type LeaderChange struct {
	AuctionID string
	FlagID    string
	Previous  string
	Current   string
}

// RefreshWorker polls the marketplace on an interval and refreshes the
// active auctions and the flag list. The two fetches are independent and
// run in parallel; an error in one never blocks the other. Between polls
// the worker diffs auction leaders and reports changes through the
// optional callback.
type RefreshWorker struct {
	auctions       AuctionRefresher
	flags          FlagRefresher
	pollInterval   time.Duration
	onLeaderChange func(LeaderChange)
	logger         *logging.Logger

	running      bool
	mu           sync.RWMutex
	stopCh       chan struct{}
	doneCh       chan struct{}
	lastPollTime time.Time
	pollsDone    int
	leaders      map[string]string
}

// RefreshWorkerConfig holds configuration for a refresh worker.
type RefreshWorkerConfig struct {
	Auctions     AuctionRefresher
	Flags        FlagRefresher
	PollInterval time.Duration // default: 15 seconds
	// OnLeaderChange is invoked once per auction whose highest bidder
	// changed since the previous poll. Optional.
	OnLeaderChange func(LeaderChange)
	Logger         *logging.Logger
}

// NewRefreshWorker creates a new refresh worker.
func NewRefreshWorker(cfg *RefreshWorkerConfig) (*RefreshWorker, error) {
	if cfg.Auctions == nil {
		return nil, fmt.Errorf("auction refresher cannot be nil")
	}
	if cfg.Flags == nil {
		return nil, fmt.Errorf("flag refresher cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 15 * time.Second
	}
	if pollInterval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least one second, got %v", pollInterval)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RefreshWorker{
		auctions:       cfg.Auctions,
		flags:          cfg.Flags,
		pollInterval:   pollInterval,
		onLeaderChange: cfg.OnLeaderChange,
		logger:         logger.WithField("component", "refresh_worker"),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		leaders:        make(map[string]string),
	}, nil
}

// Start begins the polling loop. The first poll runs immediately.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.WithField("poll_interval", w.pollInterval.String()).Info("Starting refresh worker")

	go w.pollLoop(ctx)
	return nil
}

// Stop gracefully stops the polling loop.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		w.logger.Info("Refresh worker stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *RefreshWorker) pollLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Refresh worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one refresh cycle: active auctions and the flag list, fetched
// in parallel. Errors are logged and the next cycle tries again.
func (w *RefreshWorker) Poll(ctx context.Context) {
	w.mu.Lock()
	w.lastPollTime = time.Now()
	w.mu.Unlock()

	var wg sync.WaitGroup
	var auctions []models.Auction
	var auctionErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		auctions, auctionErr = w.auctions.RefreshAuctions(ctx, types.AuctionActive)
	}()
	go func() {
		defer wg.Done()
		if _, err := w.flags.RefreshFlags(ctx, ""); err != nil {
			w.logger.WithError(err).Warn("Flag refresh failed")
		}
	}()
	wg.Wait()

	if auctionErr != nil {
		w.logger.WithError(auctionErr).Warn("Auction refresh failed")
	} else {
		w.diffLeaders(auctions)
	}

	w.mu.Lock()
	w.pollsDone++
	w.mu.Unlock()
}

// diffLeaders compares the highest bidders against the previous poll and
// reports every change. Auctions that left the active list are forgotten.
func (w *RefreshWorker) diffLeaders(auctions []models.Auction) {
	w.mu.Lock()
	previous := w.leaders
	next := make(map[string]string, len(auctions))
	var changes []LeaderChange

	for _, a := range auctions {
		next[a.ID] = a.HighestBidderID
		prev, seen := previous[a.ID]
		if seen && prev != a.HighestBidderID {
			changes = append(changes, LeaderChange{
				AuctionID: a.ID,
				FlagID:    a.FlagID,
				Previous:  prev,
				Current:   a.HighestBidderID,
			})
		}
	}
	w.leaders = next
	cb := w.onLeaderChange
	w.mu.Unlock()

	if cb == nil {
		return
	}
	for _, change := range changes {
		cb(change)
	}
}

// Status returns a snapshot of the worker's state.
func (w *RefreshWorker) Status() RefreshWorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return RefreshWorkerStatus{
		Running:             w.running,
		LastPollTime:        w.lastPollTime,
		PollsCompleted:      w.pollsDone,
		AuctionsTracked:     len(w.leaders),
		PollIntervalSeconds: int(w.pollInterval.Seconds()),
	}
}

// RefreshWorkerStatus represents the current state of a refresh worker.
type RefreshWorkerStatus struct {
	Running             bool
	LastPollTime        time.Time
	PollsCompleted      int
	AuctionsTracked     int
	PollIntervalSeconds int
}
