package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmynk/wageledger/internal/storage"
)

const schemaVersionKey = "schema_version"

var errReadOnly = errors.New("write in read-only transaction")

// txn implements storage.Tx on top of a *sql.Tx.
type txn struct {
	tx       *sql.Tx
	readOnly bool
	hooks    []func()
}

func (t *txn) Get(ctx context.Context, kind storage.Kind, id string) ([]byte, error) {
	var body string
	err := t.tx.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE kind = ? AND id = ?",
		string(kind), id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return []byte(body), nil
}

func (t *txn) Put(ctx context.Context, kind storage.Kind, id string, doc []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	if id == "" {
		return fmt.Errorf("failed to put %s: empty id", kind)
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO documents (kind, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET body = excluded.body`,
		string(kind), id, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", kind, err)
	}
	return nil
}

func (t *txn) Delete(ctx context.Context, kind storage.Kind, id string) error {
	if t.readOnly {
		return errReadOnly
	}
	res, err := t.tx.ExecContext(ctx,
		"DELETE FROM documents WHERE kind = ? AND id = ?",
		string(kind), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

func (t *txn) Query(ctx context.Context, kind storage.Kind, q storage.Query) ([][]byte, error) {
	query, args, err := buildQuery(kind, q)
	if err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		docs = append(docs, []byte(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
	}
	return docs, nil
}

// fieldName restricts query fields to plain identifiers so they can be
// inlined as JSON paths, which lets SQLite match expression indexes.
var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// buildQuery translates q into SQL.
func buildQuery(kind storage.Kind, q storage.Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{string(kind)}

	sb.WriteString("SELECT body FROM documents WHERE kind = ?")
	for _, f := range q.Where {
		if !fieldName.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid query field %q", f.Field)
		}
		sb.WriteString(" AND json_extract(body, '$." + f.Field + "') = ?")
		args = append(args, sqlValue(f.Value))
	}

	dir := " ASC"
	if q.Desc {
		dir = " DESC"
	}
	sb.WriteString(" ORDER BY ")
	for _, field := range q.SortBy {
		if !fieldName.MatchString(field) {
			return "", nil, fmt.Errorf("invalid sort field %q", field)
		}
		sb.WriteString("json_extract(body, '$." + field + "')" + dir + ", ")
	}
	sb.WriteString("seq" + dir)

	return sb.String(), args, nil
}

// sqlValue maps Go values onto what json_extract returns for them.
// JSON booleans come back as integers.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func (t *txn) Records(ctx context.Context, kind storage.Kind) ([]storage.Record, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE kind = ? ORDER BY seq",
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", kind, err)
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(body)))
		dec.UseNumber()
		rec := storage.Record{}
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s record %s: %w", kind, id, err)
		}
		if rec.ID() == "" {
			rec["id"] = id
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s records: %w", kind, err)
	}
	return records, nil
}

func (t *txn) PutRecord(ctx context.Context, kind storage.Kind, rec storage.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", kind, err)
	}
	return t.Put(ctx, kind, rec.ID(), doc)
}

func (t *txn) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := t.tx.QueryRowContext(ctx,
		"SELECT value FROM ledger_meta WHERE key = ?",
		schemaVersionKey,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (t *txn) SetSchemaVersion(ctx context.Context, version int) error {
	if t.readOnly {
		return errReadOnly
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		schemaVersionKey, version,
	)
	if err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}
	return nil
}

func (t *txn) OnCommit(fn func()) {
	if t.readOnly {
		return
	}
	t.hooks = append(t.hooks, fn)
}
