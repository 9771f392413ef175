package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/internal/storage"
)

// Importer upserts catalog files into storage. Every record remembers the file it came from,
// so re-importing or removing a file replaces or drops exactly its records.
type Importer struct {
	store  storage.Storage
	logger *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(imp *Importer) { imp.logger = l }
}

// NewImporter creates an importer writing to store.
func NewImporter(store storage.Storage, opts ...ImporterOption) *Importer {
	imp := &Importer{store: store}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.logger == nil {
		imp.logger = zap.NewNop()
	}
	return imp
}

// ImportFile loads the catalog at path and replaces the records previously imported from it.
// Records without an ID get RecordID(path, index). Returns the number of records stored.
// If the file cannot be parsed or stored, the previous records are left as they were.
func (imp *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	records, err := LoadFile(absPath)
	if err != nil {
		return 0, err
	}

	businesses := make([]*models.Business, len(records))
	for i := range records {
		b := records[i].ToBusiness()
		if b.ID == "" {
			b.ID = RecordID(absPath, i)
		}
		businesses[i] = b
	}
	if err := imp.store.ReplaceSource(ctx, absPath, businesses); err != nil {
		return 0, err
	}
	imp.logger.Info("catalog imported", zap.String("path", absPath), zap.Int("records", len(records)))
	return len(records), nil
}

// RemoveFile deletes the records imported from path.
func (imp *Importer) RemoveFile(ctx context.Context, path string) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := imp.store.DeleteBySource(ctx, absPath)
	if err != nil {
		return 0, err
	}
	imp.logger.Info("catalog removed", zap.String("path", absPath), zap.Int64("records", n))
	return n, nil
}

// ImportDirectory imports every catalog file under root whose extension is in extensions
// (SupportedExtensions when empty). A file that fails to import is logged and skipped.
// Returns the number of files imported.
func (imp *Importer) ImportDirectory(ctx context.Context, root string, extensions []string, recursive bool) (int, error) {
	if len(extensions) == 0 {
		extensions = SupportedExtensions
	}
	imported := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if _, err := imp.ImportFile(ctx, path); err != nil {
			imp.logger.Warn("catalog import failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		imported++
		return nil
	})
	return imported, err
}
