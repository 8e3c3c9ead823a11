// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the underlying store cannot serve a request.
	// Read-only calls failing with it may be retried; failed writes never partially commit.
	ErrUnavailable = errors.New("storage unavailable")
)

// Kind names a logical table of documents.
type Kind string

const (
	KindEmployee   Kind = "employee"
	KindAttendance Kind = "attendance"
	KindPayment    Kind = "payment"
)

// Record is a schema-agnostic view of one document, used by migrations.
// Numbers decode as json.Number so values round-trip without loss.
// Every record carries its identifier under the "id" key.
type Record map[string]any

// ID returns the record identifier, or "" if missing.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter matches documents whose top-level Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one kind.
// Results are ordered by SortBy fields, then by creation order.
// Desc reverses every sort key, including creation order.
type Query struct {
	Where  []Filter
	SortBy []string
	Desc   bool
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	// Get returns the raw JSON document, or ErrNotFound.
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)

	// Put inserts or replaces a document. Replacing keeps its creation order.
	Put(ctx context.Context, kind Kind, id string, doc []byte) error

	// Delete removes a document, or returns ErrNotFound.
	Delete(ctx context.Context, kind Kind, id string) error

	// Query returns the raw JSON documents matching q.
	Query(ctx context.Context, kind Kind, q Query) ([][]byte, error)

	// Records returns every document of kind in creation order, decoded as Records.
	Records(ctx context.Context, kind Kind) ([]Record, error)

	// PutRecord writes a Record back under its "id".
	PutRecord(ctx context.Context, kind Kind, rec Record) error

	// SchemaVersion returns the persisted record schema version (0 for a new store).
	SchemaVersion(ctx context.Context) (int, error)

	// SetSchemaVersion persists the record schema version.
	SetSchemaVersion(ctx context.Context, version int) error

	// OnCommit registers fn to run after the transaction commits.
	// Hooks run in registration order and in commit order across transactions.
	// They must not block. Hooks of aborted or read-only transactions never run.
	OnCommit(fn func())
}

// Store defines the ledger store: durable keyed documents with atomic transactions.
// This abstraction allows swapping storage backends without changing the ledger.
type Store interface {
	// Transact runs fn in a write transaction. Write transactions are serialized.
	// If fn returns an error nothing is committed.
	Transact(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn in a read transaction that observes a consistent snapshot.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
