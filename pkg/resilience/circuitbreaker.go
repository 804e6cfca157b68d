// Package resilience guards calls to optional dependencies with a circuit
// breaker and a per-call timeout, so a slow or failing dependency cannot
// stall an indexing run.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker refuses a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current phase of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when the breaker trips and how each call is bounded.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	CallTimeout      time.Duration
}

func defaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
		CallTimeout:      5 * time.Second,
	}
}

// Breaker trips open after FailureThreshold consecutive failures. Once the
// cooldown has passed it lets a single probe call through; the probe's
// outcome closes or re-opens the circuit.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeActive bool
}

// NewBreaker creates a Breaker, filling in defaults for zero values.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	defaults := defaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaults.Cooldown
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaults.CallTimeout
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.WithComponent("circuit-breaker").With("name", name),
	}
}

// Do runs fn under the call timeout if the circuit allows it and records the
// outcome. Cancellation of the parent context is not counted as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%s: %w (limit: %v)", b.name, context.DeadlineExceeded, b.cfg.CallTimeout)
	}
	b.after(err, ctx.Err() != nil)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry after %v)", ErrCircuitOpen, b.name, wait.Round(time.Millisecond))
		}
		b.state = StateHalfOpen
		b.probeActive = true
		b.logger.Info("circuit half-open, probing")
	case StateHalfOpen:
		if b.probeActive {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, b.name)
		}
		b.probeActive = true
	}
	return nil
}

func (b *Breaker) after(err error, cancelled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.probeActive = false
	}
	if cancelled {
		return
	}
	if err == nil {
		if b.state != StateClosed {
			b.logger.Info("circuit closed")
		}
		b.state = StateClosed
		b.failures = 0
		return
	}
	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
			b.logger.Warn("circuit opened", "consecutive_failures", b.failures, "error", err)
		}
	case StateHalfOpen:
		b.trip()
		b.logger.Warn("circuit re-opened, probe failed", "error", err)
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
}
