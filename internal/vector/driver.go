package vector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
)

// FileTask processes a single file. Tasks share no state other than what
// they read from and write to the corpus store.
type FileTask func(ctx context.Context, fileName string) error

// FileResult is the outcome of one FileTask.
type FileResult struct {
	FileName string
	Err      error
	Elapsed  time.Duration
}

// Driver runs one task per file on a fixed-size worker pool.
type Driver struct {
	workers int
	// onBusy, when set, is told about workers entering (+1) and leaving (-1) a task.
	onBusy func(delta float64)
}

// NewDriver creates a Driver with the given pool size. Sizes below one are
// raised to one.
func NewDriver(workers int) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{workers: workers}
}

// Workers returns the pool size.
func (d *Driver) Workers() int {
	return d.workers
}

// Run dispatches task for every file and returns once all of them have
// finished. Failures and panics are captured per file; they never stop
// sibling tasks. Results are in the order of files.
func (d *Driver) Run(ctx context.Context, files []string, task FileTask) []FileResult {
	results := make([]FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, name := range files {
		g.Go(func() error {
			results[i] = d.runOne(ctx, name, task)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Driver) runOne(ctx context.Context, name string, task FileTask) (res FileResult) {
	start := time.Now()
	res.FileName = name
	if d.onBusy != nil {
		d.onBusy(1)
		defer d.onBusy(-1)
	}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic vectorizing %s: %v", name, r)
		}
		res.Elapsed = time.Since(start)
		if res.Err != nil && !errors.Is(res.Err, apperrors.ErrNoTerms) {
			logger.FromContext(ctx).Error("file task failed",
				"component", "vector-driver",
				"file", name,
				"error", res.Err,
			)
		}
	}()
	res.Err = task(ctx, name)
	return res
}
