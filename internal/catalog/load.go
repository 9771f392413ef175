package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/voxa/internal/models"
)

// ErrUnsupportedFormat is returned for files that are not JSON, YAML or XLSX.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// SupportedExtensions lists the catalog file extensions LoadFile understands.
var SupportedExtensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// document is the wrapped form: {"businesses": [...]}.
type document struct {
	Businesses []models.BusinessInput `json:"businesses" yaml:"businesses"`
}

// LoadFile reads the catalog file at path.
func LoadFile(path string) ([]models.BusinessInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return LoadBytes(data, filepath.Ext(path))
}

// LoadBytes parses catalog content by extension. JSON and YAML accept either a list of
// records or a document with a "businesses" list.
func LoadBytes(data []byte, ext string) ([]models.BusinessInput, error) {
	var (
		records []models.BusinessInput
		err     error
	)
	switch strings.ToLower(ext) {
	case ".json":
		records, err = loadJSON(data)
	case ".yaml", ".yml":
		records, err = loadYAML(data)
	case ".xlsx":
		records, err = loadXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	for i := range records {
		if strings.TrimSpace(records[i].Name) == "" {
			return nil, fmt.Errorf("record %d: name is required", i)
		}
	}
	return records, nil
}

func loadJSON(data []byte) ([]models.BusinessInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []models.BusinessInput
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse JSON catalog: %w", err)
		}
		return records, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON catalog: %w", err)
	}
	return doc.Businesses, nil
}

func loadYAML(data []byte) ([]models.BusinessInput, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	if root.Content[0].Kind == yaml.SequenceNode {
		var records []models.BusinessInput
		if err := root.Content[0].Decode(&records); err != nil {
			return nil, fmt.Errorf("parse YAML catalog: %w", err)
		}
		return records, nil
	}
	var doc document
	if err := root.Content[0].Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	return doc.Businesses, nil
}
