// Package storage defines the persistence interface for the business catalog.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/voxa/internal/models"
)

// ErrNotFound is returned when a business does not exist.
var ErrNotFound = errors.New("business not found")

// ListFilter narrows a catalog listing. Zero values match everything.
type ListFilter struct {
	// Industry matches exactly.
	Industry string
	// Location matches as a case-insensitive substring.
	Location    string
	VisibleOnly bool
	Offset      int
	// Limit <= 0 means no limit.
	Limit int
}

// Storage defines business catalog persistence.
type Storage interface {
	CreateBusiness(ctx context.Context, b *models.Business) error
	// UpsertBusiness inserts b or replaces the record with the same ID, keeping its creation time.
	UpsertBusiness(ctx context.Context, b *models.Business) error
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	UpdateBusiness(ctx context.Context, b *models.Business) error
	DeleteBusiness(ctx context.Context, id string) error
	// ReplaceSource deletes every record imported from source and stores records in their place,
	// all in one transaction. Each record's Source is set to source.
	ReplaceSource(ctx context.Context, source string, records []*models.Business) error
	// DeleteBySource removes every record imported from source and returns how many were removed.
	DeleteBySource(ctx context.Context, source string) (int64, error)
	// ListBusinesses returns matching records in catalog order (creation time, then ID).
	ListBusinesses(ctx context.Context, filter ListFilter) ([]models.Business, error)
	CountBusinesses(ctx context.Context, filter ListFilter) (int64, error)
	// ListIndustries returns the distinct non-empty industries of visible businesses.
	ListIndustries(ctx context.Context) ([]string, error)

	Close() error
}
