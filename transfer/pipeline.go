package transfer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Item is the minimal view of a collection element the pipeline needs.
type Item interface {
	// ID identifies the item in failure reports.
	ID() int64
}

// Func performs the transfer of a single item and returns the file paths it
// produced. A non-nil error marks the item as failed without affecting the
// rest of the batch.
type Func[T Item] func(ctx context.Context, item T) ([]string, error)

// Option configures a Run call.
type Option func(*config)

type config struct {
	workers int
	logger  zerolog.Logger
}

// WithWorkers bounds the number of concurrent transfers. Values of 0 or
// less use the host's available parallelism.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithLogger attaches a logger for per-item failure diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Run transfers every item of the batch through fn, bounded to the
// configured number of items at a time. A batch always runs to completion:
// per-item failures and panics are recorded in the report, never raised,
// and a failed item never prevents the others from transferring. Outcomes
// are gathered in completion order, which may differ from submission order.
func Run[T Item](ctx context.Context, items []T, fn Func[T], opts ...Option) *Report[T] {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	report := &Report[T]{total: len(items)}

	var g errgroup.Group
	g.SetLimit(cfg.workers)
	var mu sync.Mutex
	for _, item := range items {
		item := item
		g.Go(func() error {
			files, err := transferOne(ctx, fn, item)
			if err != nil {
				cfg.logger.Debug().Int64("id", item.ID()).Err(err).Msg("transfer failed")
			}
			mu.Lock()
			report.outcomes = append(report.outcomes, Outcome[T]{Item: item, Files: files, Err: err})
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures live in the report.
	_ = g.Wait()
	return report
}

// transferOne invokes fn and converts a panic into a per-item failure at
// the worker boundary.
func transferOne[T Item](ctx context.Context, fn Func[T], item T) (files []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			files = nil
			err = fmt.Errorf("transfer of item %d panicked: %v", item.ID(), r)
		}
	}()
	return fn(ctx, item)
}
