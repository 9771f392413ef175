package models

// Status describes the catalog and the embedding model of a running server.
type Status struct {
	Businesses        int64       `json:"businesses"`
	VisibleBusinesses int64       `json:"visible_businesses"`
	Industries        []string    `json:"industries"`
	Model             ModelStatus `json:"model"`
	Ranking           RankingInfo `json:"ranking"`
	DatabasePath      string      `json:"database_path,omitempty"`
	DiskUsageBytes    int64       `json:"disk_usage_bytes"`
	WatchDirectories  []string    `json:"watch_directories,omitempty"`
}

// ModelStatus reports the embedding backend. Dimensions is 0 until the model is loaded.
type ModelStatus struct {
	Backend    string `json:"backend"`
	Ready      bool   `json:"ready"`
	Dimensions int    `json:"dimensions"`
}

// RankingInfo reports the active blend policy.
type RankingInfo struct {
	SimilarityWeight float64 `json:"similarity_weight"`
	TierWeight       float64 `json:"tier_weight"`
	MinRelevance     float64 `json:"min_relevance"`
}
