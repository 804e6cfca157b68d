package dfcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/resilience"
)

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) PublishDocFreq(context.Context, string, corpus.DocFreqTable, int) error {
	p.calls++
	return p.err
}

func TestGuard_SuspendsAfterRepeatedFailures(t *testing.T) {
	next := &countingPublisher{err: errors.New("redis down")}
	g := Guard(next, config.RedisConfig{
		PublishTimeout:   time.Second,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	})
	ctx := context.Background()

	assert.Error(t, g.PublishDocFreq(ctx, "v1", nil, 0))
	assert.Error(t, g.PublishDocFreq(ctx, "v1", nil, 0))
	err := g.PublishDocFreq(ctx, "v1", nil, 0)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
}

func TestGuard_PassesThrough(t *testing.T) {
	next := &countingPublisher{}
	g := Guard(next, config.RedisConfig{})
	assert.NoError(t, g.PublishDocFreq(context.Background(), "v1", corpus.DocFreqTable{"a": 1}, 1))
	assert.Equal(t, 1, next.calls)
}
