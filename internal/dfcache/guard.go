package dfcache

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/resilience"
)

// Guarded wraps a publisher with a circuit breaker and a per-publication
// timeout.
type Guarded struct {
	next    vector.DocFreqPublisher
	breaker *resilience.Breaker
}

var _ vector.DocFreqPublisher = (*Guarded)(nil)

// Guard wraps next using the timeout and breaker settings from cfg.
func Guard(next vector.DocFreqPublisher, cfg config.RedisConfig) *Guarded {
	return &Guarded{
		next: next,
		breaker: resilience.NewBreaker("df-publish", resilience.BreakerConfig{
			FailureThreshold: cfg.BreakerThreshold,
			Cooldown:         cfg.BreakerCooldown,
			CallTimeout:      cfg.PublishTimeout,
		}),
	}
}

func (g *Guarded) PublishDocFreq(ctx context.Context, version string, table corpus.DocFreqTable, fileCount int) error {
	return g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.next.PublishDocFreq(ctx, version, table, fileCount)
	})
}
