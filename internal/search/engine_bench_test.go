package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/voxa/internal/embedding"
	"github.com/hyperjump/voxa/internal/models"
)

func benchCandidates(n int) []models.Business {
	categories := []models.EntityCategory{
		models.EntityCompany, models.EntityOrganization, models.EntityBusiness, models.EntityConsultant, "",
	}
	out := make([]models.Business, n)
	for i := range out {
		out[i] = models.Business{
			ID:             fmt.Sprintf("b%d", i),
			Name:           fmt.Sprintf("Business %d", i),
			Industry:       "Healthcare",
			Description:    "Family and pediatric dental care",
			Specialties:    []string{"cleanings", "orthodontics"},
			EntityCategory: categories[i%len(categories)],
			Visible:        true,
		}
	}
	return out
}

func BenchmarkEngineSearch(b *testing.B) {
	provider := embedding.NewProvider("mock", func(context.Context) (embedding.Embedder, error) {
		return embedding.NewMockEmbedder(384), nil
	})
	engine, err := NewEngine(provider, nil, WithConcurrency(4))
	if err != nil {
		b.Fatal(err)
	}
	defer engine.Release()
	ctx := context.Background()
	candidates := benchCandidates(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Search(ctx, testQuery, candidates)
	}
}

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := embedding.NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
