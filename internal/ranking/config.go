// Package ranking holds the scoring policy of business search: the entity tier table,
// the similarity/tier blend, the relevance floor, and profile text composition.
package ranking

import (
	"fmt"
	"math"
)

// Default blend and floor.
const (
	DefaultSimilarityWeight = 0.85
	DefaultTierWeight       = 0.15
	DefaultMinRelevance     = 0.25
)

const weightSumTolerance = 1e-9

// Weights is the blend policy: blended = similarity*Similarity + entityWeight*Tier.
// Candidates with raw similarity below MinRelevance are dropped whatever their tier.
type Weights struct {
	Similarity   float64 `yaml:"similarity_weight" json:"similarity_weight"`
	Tier         float64 `yaml:"tier_weight" json:"tier_weight"`
	MinRelevance float64 `yaml:"min_relevance" json:"min_relevance"`
}

// DefaultWeights returns 0.85/0.15 with a 0.25 floor.
func DefaultWeights() *Weights {
	return &Weights{
		Similarity:   DefaultSimilarityWeight,
		Tier:         DefaultTierWeight,
		MinRelevance: DefaultMinRelevance,
	}
}

// Validate checks that both weights are in [0,1] and sum to 1.
func (w *Weights) Validate() error {
	if w.Similarity < 0 || w.Similarity > 1 {
		return fmt.Errorf("similarity weight %v out of [0,1]", w.Similarity)
	}
	if w.Tier < 0 || w.Tier > 1 {
		return fmt.Errorf("tier weight %v out of [0,1]", w.Tier)
	}
	if math.Abs(w.Similarity+w.Tier-1) > weightSumTolerance {
		return fmt.Errorf("similarity weight %v + tier weight %v must equal 1", w.Similarity, w.Tier)
	}
	return nil
}

// Blend returns the ranking key for a candidate.
func (w *Weights) Blend(similarity, entityWeight float64) float64 {
	return similarity*w.Similarity + entityWeight*w.Tier
}

// Relevant reports whether raw similarity clears the floor.
func (w *Weights) Relevant(similarity float64) bool {
	return similarity >= w.MinRelevance
}
