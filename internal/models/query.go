package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned by SearchQuery.Validate.
var ErrInvalidQuery = errors.New("invalid search query")

// SearchQuery is a catalog search request.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	// Industry restricts candidates to an exact industry before ranking.
	Industry string `json:"industry,omitempty"`
	// Location restricts candidates to locations containing this text (case-insensitive).
	Location string `json:"location,omitempty"`
}

// Validate normalizes limit and offset against defaultLimit and maxLimit.
// An empty query is not an error: it yields an empty result.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Offset < 0 {
		return fmt.Errorf("%w: offset cannot be negative", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", ErrInvalidQuery)
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Industry = strings.TrimSpace(q.Industry)
	q.Location = strings.TrimSpace(q.Location)
	return nil
}
