package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "dental clinic")
	b, _ := e.Embed(ctx, "dental clinic")
	c, _ := e.Embed(ctx, "law firm")
	if len(a) != 16 || e.Dimensions() != 16 {
		t.Fatalf("len = %d, want 16", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should give the same embedding")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different text should give a different embedding")
	}
	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", math.Sqrt(sum))
	}
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	if d := NewMockEmbedder(0).Dimensions(); d != 384 {
		t.Errorf("Dimensions() = %d, want 384", d)
	}
}
