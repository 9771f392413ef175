package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/voxa/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		specialties TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		location TEXT NOT NULL DEFAULT '',
		entity_category TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0,
		reviews INTEGER NOT NULL DEFAULT 0,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		verified INTEGER NOT NULL DEFAULT 0,
		visible INTEGER NOT NULL DEFAULT 1,
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_created_at ON businesses(created_at, id);
	CREATE INDEX IF NOT EXISTS idx_businesses_industry ON businesses(industry);
	CREATE INDEX IF NOT EXISTS idx_businesses_source ON businesses(source);
	`
	_, err := db.Exec(schema)
	return err
}

const businessColumns = `id, name, industry, description, specialties, tags, location, entity_category,
	rating, reviews, phone, email, website, verified, visible, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (*models.Business, error) {
	var (
		b                 models.Business
		specialties, tags string
		category          string
	)
	err := row.Scan(&b.ID, &b.Name, &b.Industry, &b.Description, &specialties, &tags, &b.Location, &category,
		&b.Rating, &b.Reviews, &b.Phone, &b.Email, &b.Website, &b.Verified, &b.Visible, &b.Source,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.EntityCategory = models.EntityCategory(category)
	if err := json.Unmarshal([]byte(specialties), &b.Specialties); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specialties of %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags of %s: %w", b.ID, err)
	}
	return &b, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// businessArgs returns b's column values from name through source.
func businessArgs(b *models.Business) ([]any, error) {
	specialties, err := marshalList(b.Specialties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal specialties: %w", err)
	}
	tags, err := marshalList(b.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return []any{b.Name, b.Industry, b.Description, specialties, tags, b.Location, string(b.EntityCategory),
		b.Rating, b.Reviews, b.Phone, b.Email, b.Website, b.Verified, b.Visible, b.Source}, nil
}

// CreateBusiness inserts a business.
func (s *SQLiteStorage) CreateBusiness(ctx context.Context, b *models.Business) error {
	args, err := businessArgs(b)
	if err != nil {
		return err
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	args = append([]any{b.ID}, args...)
	args = append(args, b.CreatedAt, b.UpdatedAt)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO businesses (`+businessColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	return err
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertBusiness inserts b or replaces the existing record with the same ID.
func (s *SQLiteStorage) UpsertBusiness(ctx context.Context, b *models.Business) error {
	return upsertBusiness(ctx, s.db, b)
}

func upsertBusiness(ctx context.Context, q queryRower, b *models.Business) error {
	args, err := businessArgs(b)
	if err != nil {
		return err
	}
	now := time.Now()
	b.UpdatedAt = now

	args = append([]any{b.ID}, args...)
	args = append(args, now, now)
	return q.QueryRowContext(ctx,
		`INSERT INTO businesses (`+businessColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, industry = excluded.industry, description = excluded.description,
			specialties = excluded.specialties, tags = excluded.tags, location = excluded.location,
			entity_category = excluded.entity_category, rating = excluded.rating, reviews = excluded.reviews,
			phone = excluded.phone, email = excluded.email, website = excluded.website,
			verified = excluded.verified, visible = excluded.visible, source = excluded.source,
			updated_at = excluded.updated_at
		 RETURNING created_at`,
		args...,
	).Scan(&b.CreatedAt)
}

// ReplaceSource atomically swaps the records imported from source for records.
// On error nothing changes.
func (s *SQLiteStorage) ReplaceSource(ctx context.Context, source string, records []*models.Business) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM businesses WHERE source = ?`, source); err != nil {
		return fmt.Errorf("clear previous import: %w", err)
	}
	for i, b := range records {
		b.Source = source
		if err = upsertBusiness(ctx, tx, b); err != nil {
			return fmt.Errorf("store record %d (%s): %w", i, b.ID, err)
		}
	}
	return tx.Commit()
}

// GetBusiness returns a business by ID.
func (s *SQLiteStorage) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	b, err := scanBusiness(s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBusiness updates an existing business.
func (s *SQLiteStorage) UpdateBusiness(ctx context.Context, b *models.Business) error {
	args, err := businessArgs(b)
	if err != nil {
		return err
	}
	b.UpdatedAt = time.Now()

	args = append(args, b.UpdatedAt, b.ID)
	result, err := s.db.ExecContext(ctx,
		`UPDATE businesses SET name = ?, industry = ?, description = ?, specialties = ?, tags = ?,
			location = ?, entity_category = ?, rating = ?, reviews = ?, phone = ?, email = ?, website = ?,
			verified = ?, visible = ?, source = ?, updated_at = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, b.ID)
	}
	return nil
}

// DeleteBusiness removes a business by ID.
func (s *SQLiteStorage) DeleteBusiness(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// DeleteBySource removes all businesses imported from source.
func (s *SQLiteStorage) DeleteBySource(ctx context.Context, source string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM businesses WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func whereClause(filter ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.VisibleOnly {
		conds = append(conds, "visible = 1")
	}
	if filter.Industry != "" {
		conds = append(conds, "industry = ?")
		args = append(args, filter.Industry)
	}
	if filter.Location != "" {
		conds = append(conds, `location LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Location)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListBusinesses returns businesses matching filter ordered by creation time, then ID.
func (s *SQLiteStorage) ListBusinesses(ctx context.Context, filter ListFilter) ([]models.Business, error) {
	where, args := whereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses`+where+`
		 ORDER BY created_at, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	businesses := []models.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, *b)
	}
	return businesses, rows.Err()
}

// CountBusinesses returns the number of businesses matching filter. Offset and Limit are ignored.
func (s *SQLiteStorage) CountBusinesses(ctx context.Context, filter ListFilter) (int64, error) {
	where, args := whereClause(filter)
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`+where, args...).Scan(&count)
	return count, err
}

// ListIndustries returns the distinct industries of visible businesses, sorted.
func (s *SQLiteStorage) ListIndustries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT industry FROM businesses WHERE visible = 1 AND industry != '' ORDER BY industry`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	industries := []string{}
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, err
		}
		industries = append(industries, industry)
	}
	return industries, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
