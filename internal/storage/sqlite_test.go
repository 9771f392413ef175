package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/voxa/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &models.Business{
		ID:             "b1",
		Name:           "Acme Dental",
		Industry:       "Health",
		Description:    "Family and pediatric dentistry",
		Specialties:    []string{"pediatric", "orthodontics"},
		Tags:           []string{"kids"},
		Location:       "Lagos",
		EntityCategory: models.EntityCompany,
		Rating:         4.5,
		Reviews:        12,
		Verified:       true,
		Visible:        true,
	}
	if err := store.CreateBusiness(ctx, b); err != nil {
		t.Fatal(err)
	}
	if b.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetBusiness(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Acme Dental" || got.EntityCategory != models.EntityCompany || got.Rating != 4.5 {
		t.Errorf("got %+v", got)
	}
	if len(got.Specialties) != 2 || got.Specialties[1] != "orthodontics" || len(got.Tags) != 1 {
		t.Errorf("lists not round-tripped: %v %v", got.Specialties, got.Tags)
	}
	if !got.Verified || !got.Visible {
		t.Error("flags not round-tripped")
	}

	b.Name = "Acme Dental Group"
	if err := store.UpdateBusiness(ctx, b); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetBusiness(ctx, "b1")
	if got.Name != "Acme Dental Group" {
		t.Errorf("expected updated name, got %s", got.Name)
	}

	if err := store.DeleteBusiness(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBusiness(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpdateBusiness(ctx, &models.Business{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateBusiness: got %v", err)
	}
	if err := store.DeleteBusiness(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBusiness: got %v", err)
	}
}

func TestSQLiteStorage_NilListsRoundTripEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.CreateBusiness(ctx, &models.Business{ID: "b", Name: "Solo"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetBusiness(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if got.Specialties == nil || len(got.Specialties) != 0 {
		t.Errorf("Specialties = %#v, want empty", got.Specialties)
	}
}

func TestSQLiteStorage_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &models.Business{ID: "u1", Name: "First", Visible: true, Source: "/cat/a.json"}
	if err := store.UpsertBusiness(ctx, b); err != nil {
		t.Fatal(err)
	}
	created := b.CreatedAt

	b2 := &models.Business{ID: "u1", Name: "Second", Visible: true, Source: "/cat/a.json"}
	if err := store.UpsertBusiness(ctx, b2); err != nil {
		t.Fatal(err)
	}
	if !b2.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on upsert: %v -> %v", created, b2.CreatedAt)
	}
	got, _ := store.GetBusiness(ctx, "u1")
	if got.Name != "Second" {
		t.Errorf("expected Second, got %s", got.Name)
	}
	n, _ := store.CountBusinesses(ctx, ListFilter{})
	if n != 1 {
		t.Errorf("expected 1 business, got %d", n)
	}
}

func TestSQLiteStorage_ListFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []models.Business{
		{ID: "1", Name: "A", Industry: "Health", Location: "Lagos, Nigeria", Visible: true},
		{ID: "2", Name: "B", Industry: "Legal", Location: "Abuja", Visible: true},
		{ID: "3", Name: "C", Industry: "Health", Location: "Abuja", Visible: false},
		{ID: "4", Name: "D", Industry: "Health", Location: "lagos island", Visible: true},
		{ID: "5", Name: "E", Industry: "Tech", Location: "100%_remote", Visible: true},
	}
	for i := range seed {
		if err := store.CreateBusiness(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all", ListFilter{}, []string{"1", "2", "3", "4", "5"}},
		{"visible", ListFilter{VisibleOnly: true}, []string{"1", "2", "4", "5"}},
		{"industry", ListFilter{Industry: "Health", VisibleOnly: true}, []string{"1", "4"}},
		{"location case-insensitive", ListFilter{Location: "LAGOS"}, []string{"1", "4"}},
		{"location wildcard escaped", ListFilter{Location: "%_"}, []string{"5"}},
		{"paged", ListFilter{Offset: 1, Limit: 2}, []string{"2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.ListBusinesses(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, b := range list {
				ids = append(ids, b.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}

	n, err := store.CountBusinesses(ctx, ListFilter{Industry: "Health"})
	if err != nil || n != 3 {
		t.Errorf("CountBusinesses: %v, %d", err, n)
	}

	industries, err := store.ListIndustries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(industries) != 3 || industries[0] != "Health" || industries[2] != "Tech" {
		t.Errorf("industries = %v", industries)
	}
}

func TestSQLiteStorage_DeleteBySource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, b := range []models.Business{
		{ID: "a1", Name: "a1", Source: "/cat/a.json"},
		{ID: "a2", Name: "a2", Source: "/cat/a.json"},
		{ID: "b1", Name: "b1", Source: "/cat/b.yaml"},
	} {
		b := b
		if err := store.UpsertBusiness(ctx, &b); err != nil {
			t.Fatal(err)
		}
	}
	n, err := store.DeleteBySource(ctx, "/cat/a.json")
	if err != nil || n != 2 {
		t.Errorf("DeleteBySource: %v, %d", err, n)
	}
	left, _ := store.CountBusinesses(ctx, ListFilter{})
	if left != 1 {
		t.Errorf("expected 1 left, got %d", left)
	}
}

func TestSQLiteStorage_Memory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.CreateBusiness(ctx, &models.Business{ID: "m", Name: "M"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.CountBusinesses(ctx, ListFilter{}); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
}

// rejectName makes every insert of a business called name fail, like a write error mid-import.
func rejectName(t *testing.T, store *SQLiteStorage, name string) {
	t.Helper()
	_, err := store.db.Exec(`CREATE TRIGGER reject_name BEFORE INSERT ON businesses
		WHEN NEW.name = '` + name + `' BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteStorage_ReplaceSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	const src = "/cat/a.json"

	first := []*models.Business{{ID: "a1", Name: "A1"}, {ID: "a2", Name: "A2"}, {ID: "a3", Name: "A3"}}
	if err := store.ReplaceSource(ctx, src, first); err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	if err := store.UpsertBusiness(ctx, &models.Business{ID: "b1", Name: "B1", Source: "/cat/b.yaml"}); err != nil {
		t.Fatal(err)
	}
	b, err := store.GetBusiness(ctx, "a2")
	if err != nil || b.Source != src {
		t.Fatalf("GetBusiness(a2) = %+v, %v", b, err)
	}

	if err := store.ReplaceSource(ctx, src, []*models.Business{{ID: "a1", Name: "A1 v2"}}); err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	if n, _ := store.CountBusinesses(ctx, ListFilter{}); n != 2 {
		t.Errorf("expected a1 and b1 after replace, got %d records", n)
	}
	if b, _ := store.GetBusiness(ctx, "a1"); b == nil || b.Name != "A1 v2" {
		t.Errorf("a1 = %+v", b)
	}
}

func TestSQLiteStorage_ReplaceSource_RollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	const src = "/cat/a.json"
	if err := store.ReplaceSource(ctx, src, []*models.Business{
		{ID: "a1", Name: "A1"}, {ID: "a2", Name: "A2"}, {ID: "a3", Name: "A3"},
	}); err != nil {
		t.Fatal(err)
	}
	rejectName(t, store, "Broken")

	err := store.ReplaceSource(ctx, src, []*models.Business{
		{ID: "a1", Name: "A1 v2"}, {ID: "a2", Name: "Broken"}, {ID: "a3", Name: "A3 v2"},
	})
	if err == nil {
		t.Fatal("expected the failing write to fail the replace")
	}
	if n, _ := store.CountBusinesses(ctx, ListFilter{}); n != 3 {
		t.Errorf("records left = %d, want the 3 previous records", n)
	}
	if b, _ := store.GetBusiness(ctx, "a1"); b == nil || b.Name != "A1" {
		t.Errorf("a1 = %+v, want the previous version", b)
	}
}
