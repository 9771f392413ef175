package catalog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/voxa/internal/models"
)

// listSeparator splits specialties and tags inside a single spreadsheet cell.
const listSeparator = ";"

// columnAliases maps normalized header names to record fields.
var columnAliases = map[string]string{
	"id":              "id",
	"name":            "name",
	"business_name":   "name",
	"industry":        "industry",
	"description":     "description",
	"specialties":     "specialties",
	"tags":            "tags",
	"location":        "location",
	"entity_category": "entity_category",
	"category":        "entity_category",
	"entity_type":     "entity_category",
	"rating":          "rating",
	"reviews":         "reviews",
	"phone":           "phone",
	"email":           "email",
	"website":         "website",
	"verified":        "verified",
	"is_verified":     "verified",
	"visible":         "visible",
	"is_visible":      "visible",
}

// loadXLSX reads the first sheet. Row 1 is the header; empty rows are skipped.
func loadXLSX(data []byte) ([]models.BusinessInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	fields := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		fields[i] = columnAliases[normalizeHeader(header)]
	}

	var records []models.BusinessInput
	for r, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		var rec models.BusinessInput
		for i, cell := range row {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			if err := setField(&rec, fields[i], strings.TrimSpace(cell)); err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func setField(rec *models.BusinessInput, field, value string) error {
	switch field {
	case "id":
		rec.ID = value
	case "name":
		rec.Name = value
	case "industry":
		rec.Industry = value
	case "description":
		rec.Description = value
	case "specialties":
		rec.Specialties = splitList(value)
	case "tags":
		rec.Tags = splitList(value)
	case "location":
		rec.Location = value
	case "entity_category":
		rec.EntityCategory = models.EntityCategory(value)
	case "rating":
		if value == "" {
			return nil
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q", value)
		}
		rec.Rating = v
	case "reviews":
		if value == "" {
			return nil
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid reviews %q", value)
		}
		rec.Reviews = v
	case "phone":
		rec.Phone = value
	case "email":
		rec.Email = value
	case "website":
		rec.Website = value
	case "verified":
		rec.Verified = parseBool(value)
	case "visible":
		if value != "" {
			v := parseBool(value)
			rec.Visible = &v
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
