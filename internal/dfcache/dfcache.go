// Package dfcache publishes document-frequency tables to Redis so that the
// bug-report vectoriser can weight query terms against the same table the
// source files were indexed with.
package dfcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/redis"
)

// ErrNotPublished is returned by Load when no table exists for a version.
var ErrNotPublished = errors.New("document-frequency table not published")

// Backend is the subset of the Redis client used by the cache.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
}

var _ Backend = (*pkgredis.Client)(nil)

// Table is a published document-frequency table.
type Table struct {
	Version   string
	FileCount int
	DocFreq   corpus.DocFreqTable
}

// IDF returns the inverse document frequency of term against the table, or
// zero when the term does not occur in any file.
func (t *Table) IDF(term string) float64 {
	df := t.DocFreq[term]
	if df == 0 || t.FileCount == 0 {
		return 0
	}
	return vector.IDF(df, t.FileCount)
}

// Cache writes and reads document-frequency tables keyed by corpus version.
type Cache struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

var _ vector.DocFreqPublisher = (*Cache)(nil)

// New creates a Cache over backend using the key prefix and TTL from cfg.
func New(backend Backend, cfg config.RedisConfig) *Cache {
	return &Cache{
		backend: backend,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TableTTL,
		logger:  logger.WithComponent("df-cache"),
	}
}

// PublishDocFreq replaces the table stored for version.
func (c *Cache) PublishDocFreq(ctx context.Context, version string, table corpus.DocFreqTable, fileCount int) error {
	fields := make(map[string]any, len(table))
	for term, df := range table {
		fields[term] = df
	}
	if err := c.backend.ReplaceHash(ctx, c.tableKey(version), fields, c.ttl); err != nil {
		return fmt.Errorf("publishing df table %s: %w", version, err)
	}
	if err := c.backend.Set(ctx, c.filesKey(version), fileCount, c.ttl); err != nil {
		return fmt.Errorf("publishing file count %s: %w", version, err)
	}
	c.logger.Info("df table published", "version", version, "terms", len(table), "files", fileCount)
	return nil
}

// Load reads the table for version. Concurrent loads of the same version
// share a single round trip.
func (c *Cache) Load(ctx context.Context, version string) (*Table, error) {
	val, err, shared := c.group.Do(version, func() (interface{}, error) {
		return c.load(ctx, version)
	})
	if err != nil {
		if errors.Is(err, ErrNotPublished) {
			c.misses.Add(1)
		}
		return nil, err
	}
	c.hits.Add(1)
	c.logger.Debug("df table loaded", "version", version, "shared", shared)
	return val.(*Table), nil
}

func (c *Cache) load(ctx context.Context, version string) (*Table, error) {
	raw, err := c.backend.Get(ctx, c.filesKey(version))
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, fmt.Errorf("%s: %w", version, ErrNotPublished)
		}
		return nil, fmt.Errorf("reading file count %s: %w", version, err)
	}
	fileCount, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing file count %s: %w", version, err)
	}
	fields, err := c.backend.HGetAll(ctx, c.tableKey(version))
	if err != nil {
		return nil, fmt.Errorf("reading df table %s: %w", version, err)
	}
	table := make(corpus.DocFreqTable, len(fields))
	for term, v := range fields {
		df, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing df of %q in %s: %w", term, version, err)
		}
		table[term] = df
	}
	return &Table{Version: version, FileCount: fileCount, DocFreq: table}, nil
}

// Stats returns the number of successful and not-published loads.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) tableKey(version string) string {
	return c.prefix + "df:" + version
}

func (c *Cache) filesKey(version string) string {
	return c.prefix + "df:" + version + ":files"
}
