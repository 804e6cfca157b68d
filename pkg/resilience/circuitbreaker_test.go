package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int) (*Breaker, *clock) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: threshold, Cooldown: time.Minute, CallTimeout: time.Second})
	b.now = clk.now
	return b, clk
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Do(ctx, fail), errDown)
		assert.Equal(t, StateClosed, b.State())
	}
	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(2)
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	require.NoError(t, b.Do(ctx, succeed))
	_ = b.Do(ctx, fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b, clk := newTestBreaker(1)
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	require.Equal(t, StateOpen, b.State())

	clk.advance(30 * time.Second)
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrCircuitOpen)

	clk.advance(31 * time.Second)
	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, StateOpen, b.State())

	clk.advance(time.Minute)
	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CallTimeout(t *testing.T) {
	b := NewBreaker("slow", BreakerConfig{FailureThreshold: 1, CallTimeout: 10 * time.Millisecond})
	err := b.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_ParentCancellationIsNotAFailure(t *testing.T) {
	b, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
