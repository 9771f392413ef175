package ranking

import (
	"github.com/hyperjump/voxa/internal/models"
)

// DefaultUnknownEntityWeight is the weight of an unspecified or unrecognized category.
// It matches the lowest known tier: an unknown category earns no extra credit.
const DefaultUnknownEntityWeight = 0.6

// EntityTable maps an organizational category to its tier weight.
type EntityTable struct {
	weights map[models.EntityCategory]float64
	unknown float64
}

// DefaultEntityWeights returns the default category weights.
func DefaultEntityWeights() map[models.EntityCategory]float64 {
	return map[models.EntityCategory]float64{
		models.EntityCompany:      1.0,
		models.EntityOrganization: 1.0,
		models.EntityBusiness:     0.8,
		models.EntityConsultant:   0.6,
	}
}

// DefaultEntityTable returns the table with default weights.
func DefaultEntityTable() *EntityTable {
	return &EntityTable{weights: DefaultEntityWeights(), unknown: DefaultUnknownEntityWeight}
}

// NewEntityTable returns the default table with overrides applied.
// A negative unknown keeps DefaultUnknownEntityWeight; zero is a valid weight.
func NewEntityTable(overrides map[string]float64, unknown float64) *EntityTable {
	t := DefaultEntityTable()
	for category, w := range overrides {
		t.weights[models.EntityCategory(category)] = w
	}
	if unknown >= 0 {
		t.unknown = unknown
	}
	return t
}

// WeightFor returns the tier weight for category. It never fails.
func (t *EntityTable) WeightFor(category models.EntityCategory) float64 {
	if w, ok := t.weights[category]; ok {
		return w
	}
	return t.unknown
}
