package models

// RankedResult is a business decorated with the scores of one search.
// The embedded record is a copy; the catalog entry it came from is never touched.
type RankedResult struct {
	Business
	// SimilarityScore is the raw cosine similarity between query and profile.
	SimilarityScore float64 `json:"similarity_score"`
	// BlendedScore is the ranking key.
	BlendedScore float64 `json:"blended_score"`
}

// SearchResponse is the response for a catalog search.
type SearchResponse struct {
	Results   []RankedResult `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
	Query     string         `json:"query"`
}
