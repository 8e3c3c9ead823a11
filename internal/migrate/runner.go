package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"time"

	"github.com/mmynk/wageledger/internal/metrics"
	"github.com/mmynk/wageledger/internal/storage"
)

// Runner applies registered migrations to a store.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records the resulting version and duration.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *Registry, opts ...Option) *Runner {
	r := &Runner{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate brings store to CurrentVersion using the default registry.
func Migrate(ctx context.Context, store storage.Store, opts ...Option) error {
	return NewRunner(Default(), opts...).Run(ctx, store, CurrentVersion)
}

// Run moves store from its persisted version to target, one step at a time.
// It is a no-op when the store is already at target. Every failure is a
// *MigrationFailedError and leaves the store at the last completed version.
func (r *Runner) Run(ctx context.Context, store storage.Store, target int) error {
	start := time.Now()

	current, err := storage.View(ctx, store, func(tx storage.Tx) (int, error) {
		return tx.SchemaVersion(ctx)
	})
	if err != nil {
		return &MigrationFailedError{From: current, To: target, Err: err}
	}

	if current > target {
		return &MigrationFailedError{From: current, To: target, Err: ErrVersionAhead}
	}
	if current == target {
		r.logger.Debug("Schema up to date", "version", current)
		r.metrics.Migrated(current, time.Since(start))
		return nil
	}

	if err := r.registry.Validate(current, target); err != nil {
		return &MigrationFailedError{From: current, To: target, Err: err}
	}

	r.logger.Info("Migrating ledger schema", "from", current, "to", target)
	for v := current; v < target; v++ {
		step, _ := r.registry.step(v)
		changed, err := r.apply(ctx, store, step)
		if err != nil {
			r.logger.Error("Migration step failed", "from", v, "to", v+1, "error", err)
			return &MigrationFailedError{From: v, To: v + 1, Err: err}
		}
		r.logger.Info("Migration step applied",
			"from", v,
			"to", v+1,
			"description", step.Description,
			"records_changed", changed,
		)
	}

	r.metrics.Migrated(target, time.Since(start))
	return nil
}

// apply runs one step in a single transaction and returns how many records changed.
func (r *Runner) apply(ctx context.Context, store storage.Store, step Migration) (int, error) {
	return storage.Transact(ctx, store, func(tx storage.Tx) (int, error) {
		v, err := tx.SchemaVersion(ctx)
		if err != nil {
			return 0, err
		}
		if v != step.From {
			return 0, fmt.Errorf("store moved to version %d during migration", v)
		}

		changed := 0
		for _, kind := range sortedKinds(step.Transforms) {
			transform := step.Transforms[kind]

			records, err := tx.Records(ctx, kind)
			if err != nil {
				return 0, err
			}
			for _, rec := range records {
				out, err := transform(cloneRecord(rec))
				if err != nil {
					return 0, fmt.Errorf("%s %s: %w", kind, rec.ID(), err)
				}
				if out.ID() != rec.ID() {
					return 0, fmt.Errorf("%s %s: transform changed record id", kind, rec.ID())
				}
				if reflect.DeepEqual(out, rec) {
					continue
				}
				if err := tx.PutRecord(ctx, kind, out); err != nil {
					return 0, err
				}
				changed++
			}
		}

		if err := tx.SetSchemaVersion(ctx, step.From+1); err != nil {
			return 0, err
		}
		return changed, nil
	})
}

func sortedKinds(m map[storage.Kind]Transform) []storage.Kind {
	kinds := make([]storage.Kind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func cloneRecord(rec storage.Record) storage.Record {
	out := make(storage.Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
