package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Get decodes the document kind/id into a T.
func Get[T any](ctx context.Context, tx Tx, kind Kind, id string) (T, error) {
	var v T
	doc, err := tx.Get(ctx, kind, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}
	return v, nil
}

// Put encodes v and stores it as kind/id.
func Put(ctx context.Context, tx Tx, kind Kind, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}
	return tx.Put(ctx, kind, id, doc)
}

// Find runs q and decodes every match into a T.
func Find[T any](ctx context.Context, tx Tx, kind Kind, q Query) ([]T, error) {
	docs, err := tx.Query(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Transact runs fn in a write transaction and returns its value once committed.
func Transact[T any](ctx context.Context, s Store, fn func(tx Tx) (T, error)) (T, error) {
	var out T
	err := s.Transact(ctx, func(tx Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// View runs fn in a read transaction and returns its value.
func View[T any](ctx context.Context, s Store, fn func(tx Tx) (T, error)) (T, error) {
	var out T
	err := s.View(ctx, func(tx Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
