// Package pipeline runs the extract, merge and load stages for one dataset
// and, in scheduled mode, repeats them on an interval.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/merge"
	"github.com/couchcryptid/i79-incident-etl/internal/observability"
)

// Source produces candidate incidents from one upstream. An error means the
// source produced nothing usable.
type Source interface {
	Name() string
	Extract(ctx context.Context) ([]domain.Incident, error)
}

// OverrideSource supplies the manual corrections document. Implementations
// return an empty payload rather than failing.
type OverrideSource interface {
	Overrides(ctx context.Context) domain.OverridePayload
}

// Loader writes a finished dataset to a destination.
type Loader interface {
	Name() string
	LoadDataset(ctx context.Context, ds domain.Dataset) error
}

// Config wires the stages of a pipeline.
type Config struct {
	// Sources are merged in slice order; the first to report an ID wins.
	Sources   []Source
	Overrides OverrideSource
	Loaders   []Loader
	Analyzer  *domain.Analyzer
	Clock     clockwork.Clock
	// Concurrency bounds how many sources extract at once.
	Concurrency int
	// Interval between scheduled runs. Zero means Run executes once.
	Interval time.Duration
}

// failureBackoff is the first retry delay after a run whose dataset could not
// be written. It doubles on each consecutive failure, capped at the interval.
const failureBackoff = 30 * time.Second

// Pipeline orchestrates the extract-merge-load run.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	latest  atomic.Pointer[domain.Dataset]
}

// New creates a Pipeline with the given stages and observability.
func New(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{cfg: cfg, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once a run has written its dataset to every
// loader, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published a dataset yet")
	}
	return nil
}

// Latest returns the dataset produced by the most recent run.
func (p *Pipeline) Latest() (domain.Dataset, bool) {
	ds := p.latest.Load()
	if ds == nil {
		return domain.Dataset{}, false
	}
	return *ds, true
}

// Run executes one run when no interval is configured and returns its load
// error. Otherwise it runs until the context is cancelled, logging failed
// runs and retrying them sooner than the regular interval.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		_, err := p.RunOnce(ctx)
		return err
	}

	p.logger.Info("pipeline started", "interval", p.cfg.Interval, "sources", len(p.cfg.Sources))
	backoff := min(failureBackoff, p.cfg.Interval)
	for {
		wait := p.cfg.Interval
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("run failed, retrying", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, p.cfg.Interval)
		} else {
			backoff = min(failureBackoff, p.cfg.Interval)
		}

		if !p.sleepWithContext(ctx, wait) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// RunOnce extracts from every source, merges the candidates, applies the
// override document and writes the dataset to every loader. The dataset is
// returned even when a loader fails; the error joins every loader failure.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Dataset, error) {
	start := p.cfg.Clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	batches := p.extract(ctx)

	engine := merge.NewEngine(p.cfg.Analyzer, p.logger)
	for i, src := range p.cfg.Sources {
		added := engine.Add(batches[i])
		p.logger.Info("source merged",
			"source", src.Name(),
			"candidates", len(batches[i]),
			"added", added,
		)
	}

	if p.cfg.Overrides != nil {
		engine.ApplyOverrides(p.cfg.Overrides.Overrides(ctx))
	}

	stats := engine.Stats()
	p.metrics.DuplicatesSkipped.Add(float64(stats.Duplicates))
	p.metrics.OverridesApplied.Add(float64(stats.Patched))
	p.metrics.ManualIncidents.Add(float64(stats.ManualAdded + stats.ManualReplaced))
	if stats.UnknownOverrides > 0 {
		p.logger.Warn("overrides reference unknown incidents", "count", stats.UnknownOverrides)
	}

	ds := engine.Finalize(p.cfg.Clock.Now())
	p.latest.Store(&ds)
	p.metrics.DatasetSize.Set(float64(len(ds.Incidents)))

	err := p.load(ctx, ds)
	elapsed := p.cfg.Clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		return ds, err
	}

	p.ready.Store(true)
	p.metrics.LastSuccess.Set(float64(p.cfg.Clock.Now().Unix()))
	p.logger.Info("run complete",
		"incidents", ds.Summary.IncidentCount,
		"suspected_fatalities", ds.Summary.SuspectedFatalities,
		"duplicates", stats.Duplicates,
		"patched", stats.Patched,
		"manual", stats.ManualAdded+stats.ManualReplaced,
		"duration", elapsed,
	)
	return ds, nil
}

// extract runs the sources concurrently. Each source fills only its own slot,
// so the result is indexed in priority order whatever the completion order.
// A failing source leaves its slot empty and never cancels the others.
func (p *Pipeline) extract(ctx context.Context) [][]domain.Incident {
	batches := make([][]domain.Incident, len(p.cfg.Sources))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, src := range p.cfg.Sources {
		g.Go(func() error {
			candidates, err := src.Extract(ctx)
			if err != nil {
				p.logger.Warn("source failed", "source", src.Name(), "error", err)
				p.metrics.SourceFailures.WithLabelValues(src.Name()).Inc()
				return nil
			}
			p.metrics.SourceCandidates.WithLabelValues(src.Name()).Add(float64(len(candidates)))
			batches[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// load writes ds to every loader, continuing past failures.
func (p *Pipeline) load(ctx context.Context, ds domain.Dataset) error {
	var errs []error
	for _, l := range p.cfg.Loaders {
		if err := l.LoadDataset(ctx, ds); err != nil {
			p.logger.Error("load dataset failed", "loader", l.Name(), "error", err)
			p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (p *Pipeline) sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := p.cfg.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
