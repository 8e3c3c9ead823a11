// Package migrate upgrades persisted ledger records to the current schema version.
//
// The store keeps one integer schema version. Each registered Migration moves
// the store from version From to From+1 by running a pure Transform over every
// record of the kinds it names. Steps run strictly in order, one transaction
// each, and a step's version bump commits together with its record changes.
// Transforms must be idempotent so that a step may safely run again.
package migrate

import (
	"errors"
	"fmt"

	"github.com/mmynk/wageledger/internal/storage"
)

var (
	ErrVersionAhead  = errors.New("persisted schema version is newer than this build")
	ErrMissingStep   = errors.New("no migration registered")
	ErrDuplicateStep = errors.New("migration already registered")
)

// Transform rewrites one record from the shape of version v to v+1.
// It receives a private copy and may modify it in place.
type Transform func(rec storage.Record) (storage.Record, error)

// Migration is the transition From → From+1.
type Migration struct {
	From        int
	Description string

	// Transforms are applied per record kind. Kinds not listed are untouched.
	Transforms map[storage.Kind]Transform
}

// Registry maps versions to the migration that leaves them.
type Registry struct {
	steps map[int]Migration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[int]Migration)}
}

// Register adds m. Each From version may be registered once.
func (r *Registry) Register(m Migration) error {
	if m.From < 0 {
		return fmt.Errorf("invalid migration source version %d", m.From)
	}
	if _, exists := r.steps[m.From]; exists {
		return fmt.Errorf("%w: %d -> %d", ErrDuplicateStep, m.From, m.From+1)
	}
	r.steps[m.From] = m
	return nil
}

// Validate checks that every step between from and to is registered.
func (r *Registry) Validate(from, to int) error {
	for v := from; v < to; v++ {
		if _, ok := r.steps[v]; !ok {
			return fmt.Errorf("%w: %d -> %d", ErrMissingStep, v, v+1)
		}
	}
	return nil
}

func (r *Registry) step(from int) (Migration, bool) {
	m, ok := r.steps[from]
	return m, ok
}

// MigrationFailedError reports the transition that could not complete.
// The store remains at version From.
type MigrationFailedError struct {
	From int
	To   int
	Err  error
}

func (e *MigrationFailedError) Error() string {
	return fmt.Sprintf("migration %d -> %d failed: %v", e.From, e.To, e.Err)
}

func (e *MigrationFailedError) Unwrap() error {
	return e.Err
}
