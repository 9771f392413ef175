// Package catalog loads business records from catalog files (JSON, YAML, XLSX) into storage.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hyperjump/voxa/internal/models"
)

const idPrefix = "cat:"

// RecordID returns a stable ID for the record at index in the catalog file at path.
// The same file position always yields the same ID, so re-importing a file replaces its records.
func RecordID(path string, index int) string {
	normalized := filepath.Clean(path) + "#" + strconv.Itoa(index)
	hash := sha256.Sum256([]byte(normalized))
	return idPrefix + hex.EncodeToString(hash[:16])
}

// NewRecord converts input to a business. A missing ID gets a random UUID.
func NewRecord(in *models.BusinessInput) *models.Business {
	b := in.ToBusiness()
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return b
}
