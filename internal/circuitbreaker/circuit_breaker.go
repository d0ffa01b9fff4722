// Package circuitbreaker guards an outbound dependency against sustained
// transport failure. When the marketplace API stops answering, the breaker
// opens and callers fail fast instead of stacking timeouts; after a cooldown
// a single probe decides whether to close again.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/flagmarket-client/internal/logging"
)

// State is the breaker state.
type State string

const (
	// StateClosed allows all requests
	StateClosed State = "closed"
	// StateOpen blocks requests until the cooldown elapses
	StateOpen State = "open"
	// StateHalfOpen allows a single probe request
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned while the breaker is open and cooling down.
var ErrOpen = errors.New("circuit open: dependency is unreachable")

// Breaker opens after a run of consecutive transport failures. Only failures
// to reach the dependency count; an error response is still a response and
// records a success.
type Breaker struct {
	name     string
	trip     int
	cooldown time.Duration
	logger   *logging.Logger

	mu          sync.Mutex
	state       State
	consecutive int
	openedAt    time.Time
	probing     bool
}

// Config configures a breaker.
type Config struct {
	Name     string
	Trip     int           // consecutive failures that open the circuit (default 5)
	Cooldown time.Duration // time to wait before probing (default 30s)
	Logger   *logging.Logger
}

// New creates a breaker in the closed state.
func New(cfg *Config) *Breaker {
	trip := cfg.Trip
	if trip <= 0 {
		trip = 5
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Breaker{
		name:     cfg.Name,
		trip:     trip,
		cooldown: cooldown,
		logger:   logger.WithField("breaker", cfg.Name),
		state:    StateClosed,
	}
}

// Allow reports whether a request may proceed. While open it returns ErrOpen
// until the cooldown elapses, then lets exactly one probe through.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probing = true
		b.logger.Info("Circuit half-open, probing")
		return nil
	default: // StateHalfOpen
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	}
}

// Success records a reachable dependency and closes the circuit.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive = 0
	b.probing = false
	if b.state != StateClosed {
		b.logger.Info("Circuit closed")
		b.state = StateClosed
	}
}

// Failure records a transport failure. A failed probe reopens immediately;
// in the closed state the circuit opens once the run reaches the threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if b.state == StateHalfOpen {
		b.open()
		return
	}

	b.consecutive++
	if b.state == StateClosed && b.consecutive >= b.trip {
		b.open()
	}
}

// open transitions to the open state. Caller holds the lock.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.logger.WithField("consecutive_failures", b.consecutive).Warn("Circuit opened")
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
