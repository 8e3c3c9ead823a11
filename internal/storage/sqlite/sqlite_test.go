package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/wageledger/internal/storage"
)

type doc struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Paid       bool   `json:"paid"`
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func putDocs(t *testing.T, store *SQLiteStore, docs ...doc) {
	t.Helper()
	ctx := context.Background()
	err := store.Transact(ctx, func(tx storage.Tx) error {
		for _, d := range docs {
			if err := storage.Put(ctx, tx, storage.KindAttendance, d.ID, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}
}

func queryIDs(t *testing.T, store *SQLiteStore, q storage.Query) []string {
	t.Helper()
	ctx := context.Background()
	docs, err := storage.View(ctx, store, func(tx storage.Tx) ([]doc, error) {
		return storage.Find[doc](ctx, tx, storage.KindAttendance, q)
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	putDocs(t, store,
		doc{ID: "c", EmployeeID: "e1", Date: "2024-03-02"},
		doc{ID: "a", EmployeeID: "e1", Date: "2024-03-01", Paid: true},
		doc{ID: "b", EmployeeID: "e2", Date: "2024-03-01"},
		doc{ID: "d", EmployeeID: "e1", Date: "2024-03-01"},
	)

	t.Run("Get returns stored document", func(t *testing.T) {
		got, err := storage.View(ctx, store, func(tx storage.Tx) (doc, error) {
			return storage.Get[doc](ctx, tx, storage.KindAttendance, "a")
		})
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.EmployeeID != "e1" || !got.Paid {
			t.Errorf("unexpected document %+v", got)
		}
	})

	t.Run("Get returns ErrNotFound for missing document", func(t *testing.T) {
		err := store.View(ctx, func(tx storage.Tx) error {
			_, err := tx.Get(ctx, storage.KindAttendance, "missing")
			return err
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Kinds are separate namespaces", func(t *testing.T) {
		err := store.View(ctx, func(tx storage.Tx) error {
			_, err := tx.Get(ctx, storage.KindPayment, "a")
			return err
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound across kinds, got %v", err)
		}
	})

	t.Run("Query orders by creation", func(t *testing.T) {
		got := queryIDs(t, store, storage.Query{})
		if want := []string{"c", "a", "b", "d"}; !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Query filters by string and bool", func(t *testing.T) {
		got := queryIDs(t, store, storage.Query{Where: []storage.Filter{
			{Field: "employeeId", Value: "e1"},
			{Field: "paid", Value: false},
		}})
		if want := []string{"c", "d"}; !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Query sorts by field then creation", func(t *testing.T) {
		got := queryIDs(t, store, storage.Query{SortBy: []string{"date"}})
		if want := []string{"a", "b", "d", "c"}; !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		got = queryIDs(t, store, storage.Query{SortBy: []string{"date"}, Desc: true})
		if want := []string{"c", "d", "b", "a"}; !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Query rejects unsafe field names", func(t *testing.T) {
		err := store.View(ctx, func(tx storage.Tx) error {
			_, err := tx.Query(ctx, storage.KindAttendance, storage.Query{
				Where: []storage.Filter{{Field: "date') OR 1=1 --", Value: "x"}},
			})
			return err
		})
		if err == nil {
			t.Error("expected error for invalid field name")
		}
	})

	t.Run("Replacing a document keeps its creation order", func(t *testing.T) {
		putDocs(t, store, doc{ID: "c", EmployeeID: "e1", Date: "2024-03-02", Paid: true})

		got := queryIDs(t, store, storage.Query{})
		if want := []string{"c", "a", "b", "d"}; !equalIDs(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Delete removes once", func(t *testing.T) {
		del := func() error {
			return store.Transact(ctx, func(tx storage.Tx) error {
				return tx.Delete(ctx, storage.KindAttendance, "b")
			})
		}
		if err := del(); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := del(); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestTransact_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hookRan := false
	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx storage.Tx) error {
		if err := storage.Put(ctx, tx, storage.KindAttendance, "x", doc{ID: "x"}); err != nil {
			return err
		}
		if err := tx.SetSchemaVersion(ctx, 9); err != nil {
			return err
		}
		tx.OnCommit(func() { hookRan = true })
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if hookRan {
		t.Error("commit hook ran for an aborted transaction")
	}

	if ids := queryIDs(t, store, storage.Query{}); len(ids) != 0 {
		t.Errorf("expected no documents after rollback, got %v", ids)
	}
	version, err := storage.View(ctx, store, func(tx storage.Tx) (int, error) {
		return tx.SchemaVersion(ctx)
	})
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after rollback, got %d", version)
	}
}

func TestTransact_CommitHooksRunAfterCommit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var order []string
	err := store.Transact(ctx, func(tx storage.Tx) error {
		tx.OnCommit(func() {
			// The write is visible to readers once hooks run.
			visible := store.View(ctx, func(tx storage.Tx) error {
				_, err := tx.Get(ctx, storage.KindAttendance, "x")
				return err
			}) == nil
			if visible {
				order = append(order, "first")
			}
		})
		tx.OnCommit(func() { order = append(order, "second") })
		return storage.Put(ctx, tx, storage.KindAttendance, "x", doc{ID: "x"})
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}
	if !equalIDs(order, []string{"first", "second"}) {
		t.Errorf("expected hooks in order after commit, got %v", order)
	}
}

func TestView_IsReadOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.View(ctx, func(tx storage.Tx) error {
		tx.OnCommit(func() { t.Error("hook must not run for a read") })
		return tx.Put(ctx, storage.KindAttendance, "x", []byte(`{"id":"x"}`))
	})
	if err == nil {
		t.Error("expected Put inside View to fail")
	}
	if err := store.View(ctx, func(tx storage.Tx) error { return tx.SetSchemaVersion(ctx, 1) }); err == nil {
		t.Error("expected SetSchemaVersion inside View to fail")
	}
}

func TestSchemaVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	read := func() int {
		v, err := storage.View(ctx, store, func(tx storage.Tx) (int, error) {
			return tx.SchemaVersion(ctx)
		})
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		return v
	}

	if v := read(); v != 0 {
		t.Errorf("new store: expected version 0, got %d", v)
	}
	for _, want := range []int{1, 4} {
		if err := store.Transact(ctx, func(tx storage.Tx) error { return tx.SetSchemaVersion(ctx, want) }); err != nil {
			t.Fatalf("SetSchemaVersion failed: %v", err)
		}
		if v := read(); v != want {
			t.Errorf("expected version %d, got %d", want, v)
		}
	}
}

func TestRecords_PreserveNumbers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	raw := `{"id":"p1","amount":9007199254740993,"rate":1500.5,"nested":{"n":1}}`
	err := store.Transact(ctx, func(tx storage.Tx) error {
		if err := tx.Put(ctx, storage.KindPayment, "p1", []byte(raw)); err != nil {
			return err
		}
		return tx.Put(ctx, storage.KindPayment, "p2", []byte(`{"amount":1}`))
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	records, err := storage.View(ctx, store, func(tx storage.Tx) ([]storage.Record, error) {
		return tx.Records(ctx, storage.KindPayment)
	})
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if n, ok := records[0]["amount"].(json.Number); !ok || n.String() != "9007199254740993" {
		t.Errorf("amount: expected exact json.Number, got %#v", records[0]["amount"])
	}
	if n, ok := records[0]["rate"].(json.Number); !ok || n.String() != "1500.5" {
		t.Errorf("rate: expected json.Number 1500.5, got %#v", records[0]["rate"])
	}
	if records[1].ID() != "p2" {
		t.Errorf("expected missing id to be filled from key, got %q", records[1].ID())
	}

	// Writing a record back round-trips it unchanged.
	err = store.Transact(ctx, func(tx storage.Tx) error {
		return tx.PutRecord(ctx, storage.KindPayment, records[0])
	})
	if err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}
	body, err := storage.View(ctx, store, func(tx storage.Tx) ([]byte, error) {
		return tx.Get(ctx, storage.KindPayment, "p1")
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for _, want := range []string{`"amount":9007199254740993`, `"rate":1500.5`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}
}

func TestClosedStore(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.Close()

	ctx := context.Background()
	if err := store.Transact(ctx, func(tx storage.Tx) error { return nil }); !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("Transact: expected ErrUnavailable, got %v", err)
	}
	if err := store.View(ctx, func(tx storage.Tx) error { return nil }); !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("View: expected ErrUnavailable, got %v", err)
	}
}

func TestNew_ReopensExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	putDocs(t, store, doc{ID: "kept"})
	store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if ids := queryIDs(t, reopened, storage.Query{}); !equalIDs(ids, []string{"kept"}) {
		t.Errorf("expected [kept] after reopen, got %v", ids)
	}
}

func TestBuildQuery(t *testing.T) {
	query, args, err := buildQuery(storage.KindAttendance, storage.Query{
		Where:  []storage.Filter{{Field: "employeeId", Value: "e1"}, {Field: "paid", Value: true}},
		SortBy: []string{"date"},
		Desc:   true,
	})
	if err != nil {
		t.Fatalf("buildQuery failed: %v", err)
	}

	want := "SELECT body FROM documents WHERE kind = ?" +
		" AND json_extract(body, '$.employeeId') = ?" +
		" AND json_extract(body, '$.paid') = ?" +
		" ORDER BY json_extract(body, '$.date') DESC, seq DESC"
	if query != want {
		t.Errorf("query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 3 || args[0] != "attendance" || args[1] != "e1" || args[2] != 1 {
		t.Errorf("unexpected args %v", args)
	}
}
