// Package cli provides output helpers for the voxa command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteSearchResults writes ranked results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d matches for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for i, result := range response.Results {
		writeOneResult(w, i+1, &result)
	}
	return nil
}

func writeOneResult(w io.Writer, rank int, result *models.RankedResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "#%d %s | Score: %.4f (Similarity: %.4f)\n",
		rank, result.Name, result.BlendedScore, result.SimilarityScore)
	fmt.Fprintf(w, "ID: %s\n", result.ID)
	var kind []string
	if result.Industry != "" {
		kind = append(kind, result.Industry)
	}
	if result.EntityCategory != "" {
		kind = append(kind, string(result.EntityCategory))
	}
	if len(kind) > 0 {
		fmt.Fprintf(w, "%s\n", strings.Join(kind, " · "))
	}
	if result.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", result.Location)
	}
	if len(result.Specialties) > 0 {
		fmt.Fprintf(w, "Specialties: %s\n", strings.Join(result.Specialties, ", "))
	}
	if result.Description != "" {
		fmt.Fprintf(w, "\n%s\n", TruncateWords(result.Description, 40))
	}
	fmt.Fprintln(w)
}

// WriteStatus writes a server status report to w in the given format.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	ready := "loading"
	if status.Model.Ready {
		ready = fmt.Sprintf("ready (%d dims)", status.Model.Dimensions)
	}
	fmt.Fprintf(w, "Businesses:   %d (%d visible)\n", status.Businesses, status.VisibleBusinesses)
	fmt.Fprintf(w, "Industries:   %d\n", len(status.Industries))
	fmt.Fprintf(w, "Model:        %s, %s\n", status.Model.Backend, ready)
	fmt.Fprintf(w, "Ranking:      similarity %.2f, tier %.2f, floor %.2f\n",
		status.Ranking.SimilarityWeight, status.Ranking.TierWeight, status.Ranking.MinRelevance)
	if status.DatabasePath != "" {
		fmt.Fprintf(w, "Database:     %s (%s)\n", status.DatabasePath, FormatBytes(status.DiskUsageBytes))
	}
	for _, dir := range status.WatchDirectories {
		fmt.Fprintf(w, "Watching:     %s\n", dir)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	return utils.Truncate(s, maxLen)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
