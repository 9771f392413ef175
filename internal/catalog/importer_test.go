package catalog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/voxa/internal/storage"
)

func newTestImporter(t *testing.T) (*Importer, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "cat.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewImporter(store), store
}

func TestImporter_ImportFile(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")

	if err := os.WriteFile(path, []byte(`[{"name":"Acme"},{"id":"beta","name":"Beta"},{"name":"Gamma"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	n, err := imp.ImportFile(ctx, path)
	if err != nil || n != 3 {
		t.Fatalf("ImportFile: %v, %d", err, n)
	}

	b, err := store.GetBusiness(ctx, RecordID(path, 0))
	if err != nil {
		t.Fatalf("GetBusiness: %v", err)
	}
	if b.Name != "Acme" || b.Source != path || !b.Visible {
		t.Errorf("got %+v", b)
	}
	if _, err := store.GetBusiness(ctx, "beta"); err != nil {
		t.Errorf("explicit ID should be kept: %v", err)
	}

	// Re-import with fewer rows drops the stale ones.
	if err := os.WriteFile(path, []byte(`[{"name":"Acme Updated"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if n, err = imp.ImportFile(ctx, path); err != nil || n != 1 {
		t.Fatalf("re-import: %v, %d", err, n)
	}
	count, _ := store.CountBusinesses(ctx, storage.ListFilter{})
	if count != 1 {
		t.Errorf("expected 1 business after re-import, got %d", count)
	}
	b, _ = store.GetBusiness(ctx, RecordID(path, 0))
	if b.Name != "Acme Updated" {
		t.Errorf("got %s", b.Name)
	}

	removed, err := imp.RemoveFile(ctx, path)
	if err != nil || removed != 1 {
		t.Errorf("RemoveFile: %v, %d", err, removed)
	}
}

func TestImporter_InvalidFileKeepsPreviousRecords(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	if err := os.WriteFile(path, []byte("- name: Acme\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := imp.ImportFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("- industry: nameless\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := imp.ImportFile(ctx, path); err == nil {
		t.Fatal("expected error")
	}
	count, _ := store.CountBusinesses(ctx, storage.ListFilter{})
	if count != 1 {
		t.Errorf("previous records should survive a failed import, got %d", count)
	}
}

func TestImporter_StoreFailureKeepsPreviousRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cat.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	imp := NewImporter(store)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")

	if err := os.WriteFile(path, []byte(`[{"name":"Acme"},{"name":"Beta"},{"name":"Gamma"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if n, err := imp.ImportFile(ctx, path); err != nil || n != 3 {
		t.Fatalf("ImportFile: %v, %d", err, n)
	}

	// A second connection installs a trigger that fails the write of the second record.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TRIGGER reject_beta BEFORE INSERT ON businesses
		WHEN NEW.name = 'Beta v2' BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`[{"name":"Acme v2"},{"name":"Beta v2"},{"name":"Gamma v2"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := imp.ImportFile(ctx, path); err == nil {
		t.Fatal("expected the store failure to fail the import")
	}
	count, _ := store.CountBusinesses(ctx, storage.ListFilter{})
	if count != 3 {
		t.Errorf("records left = %d, want the 3 previous records", count)
	}
	b, err := store.GetBusiness(ctx, RecordID(path, 0))
	if err != nil || b.Name != "Acme" {
		t.Errorf("first record = %+v, %v; want the previous version", b, err)
	}
}

func TestImporter_ImportDirectory(t *testing.T) {
	imp, store := newTestImporter(t)
	ctx := context.Background()
	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(root, "a.json"):      `[{"name":"A"}]`,
		filepath.Join(root, "b.yaml"):      "- name: B\n",
		filepath.Join(root, "notes.txt"):   "ignored",
		filepath.Join(root, "broken.json"): `{not json`,
		filepath.Join(nested, "c.json"):    `[{"name":"C"}]`,
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := imp.ImportDirectory(ctx, root, nil, false)
	if err != nil || n != 2 {
		t.Fatalf("ImportDirectory(flat) = %d, %v; want 2", n, err)
	}
	n, err = imp.ImportDirectory(ctx, root, nil, true)
	if err != nil || n != 3 {
		t.Fatalf("ImportDirectory(recursive) = %d, %v; want 3", n, err)
	}
	count, _ := store.CountBusinesses(ctx, storage.ListFilter{})
	if count != 3 {
		t.Errorf("expected 3 businesses, got %d", count)
	}
}
