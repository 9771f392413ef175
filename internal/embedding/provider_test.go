package embedding

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/voxa/internal/vector"
)

// funcEmbedder returns whatever fn returns.
type funcEmbedder struct {
	fn     func(text string) ([]float32, error)
	dims   int
	closed atomic.Bool
}

func (f *funcEmbedder) Embed(_ context.Context, text string) ([]float32, error) { return f.fn(text) }
func (f *funcEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, f, texts)
}
func (f *funcEmbedder) Dimensions() int { return f.dims }
func (f *funcEmbedder) Close() error {
	f.closed.Store(true)
	return nil
}

func fixed(v ...float32) *funcEmbedder {
	return &funcEmbedder{dims: len(v), fn: func(string) ([]float32, error) { return v, nil }}
}

func TestProvider_LoadsOnceUnderConcurrency(t *testing.T) {
	var loads atomic.Int32
	p := NewProvider("fake", func(context.Context) (Embedder, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return fixed(1, 0), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Embed(context.Background(), "q")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	assert.True(t, p.Ready())
}

func TestProvider_RetriesAfterFailedLoad(t *testing.T) {
	var attempts atomic.Int32
	p := NewProvider("fake", func(context.Context) (Embedder, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("model file busy")
		}
		return fixed(1, 0), nil
	})

	_, err := p.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "model file busy")
	assert.False(t, p.Ready())
	assert.Equal(t, 0, p.Dimensions())

	v, err := p.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestProvider_NormalizesCopy(t *testing.T) {
	raw := []float32{3, 4}
	p := NewProvider("fake", func(context.Context) (Embedder, error) {
		return &funcEmbedder{dims: 2, fn: func(string) ([]float32, error) { return raw, nil }}, nil
	})

	v, err := p.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.Equal(t, []float32{3, 4}, raw, "backend slice must not be modified")

	v[0] = 42
	again, err := p.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, again[0], 1e-6)
}

func TestProvider_UnitNorm(t *testing.T) {
	p := NewProvider("mock", func(context.Context) (Embedder, error) { return NewMockEmbedder(32), nil })
	for _, text := range []string{"", "accounting", "Acme Corp Tech software Lagos"} {
		v, err := p.Embed(context.Background(), text)
		require.NoError(t, err)
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5, "text %q", text)
	}
}

func TestProvider_DimensionChange(t *testing.T) {
	p := NewProvider("fake", func(context.Context) (Embedder, error) {
		return &funcEmbedder{dims: 2, fn: func(text string) ([]float32, error) {
			return make([]float32, len(text)+1), nil
		}}, nil
	})
	// Zero vectors are valid output; only the length matters here.
	_, err := p.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Dimensions())

	_, err = p.Embed(context.Background(), "ab")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelUnavailable, "a dimension change must not look retryable")
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
	var dm *vector.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.A)
	assert.Equal(t, 3, dm.B)
}

func TestProvider_BackendErrors(t *testing.T) {
	t.Run("embed failure is unavailable", func(t *testing.T) {
		p := NewProvider("fake", func(context.Context) (Embedder, error) {
			return &funcEmbedder{fn: func(string) ([]float32, error) { return nil, errors.New("session crashed") }}, nil
		})
		_, err := p.Embed(context.Background(), "q")
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("empty vector is unavailable", func(t *testing.T) {
		p := NewProvider("fake", func(context.Context) (Embedder, error) { return fixed(), nil })
		_, err := p.Embed(context.Background(), "q")
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := NewProvider("fake", func(context.Context) (Embedder, error) {
			return &funcEmbedder{fn: func(string) ([]float32, error) {
				cancel()
				return nil, context.Canceled
			}}, nil
		})
		_, err := p.Embed(ctx, "q")
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("nil embedder from loader", func(t *testing.T) {
		p := NewProvider("fake", func(context.Context) (Embedder, error) { return nil, nil })
		err := p.WarmUp(context.Background())
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})
}

func TestProvider_EmbedBatch(t *testing.T) {
	p := NewProvider("fake", func(context.Context) (Embedder, error) { return fixed(0, 2), nil })
	out, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {0, 1}}, out)
}

func TestProvider_CloseReloads(t *testing.T) {
	var loads atomic.Int32
	var last *funcEmbedder
	p := NewProvider("fake", func(context.Context) (Embedder, error) {
		loads.Add(1)
		last = fixed(1, 0)
		return last, nil
	})
	require.NoError(t, p.WarmUp(context.Background()))
	first := last
	require.NoError(t, p.Close())
	assert.True(t, first.closed.Load())
	assert.False(t, p.Ready())

	require.NoError(t, p.WarmUp(context.Background()))
	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, "fake", p.Backend())
}

func TestProvider_CloseDuringEmbed(t *testing.T) {
	p := NewProvider("fake", func(context.Context) (Embedder, error) { return fixed(1, 0), nil })
	require.NoError(t, p.WarmUp(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := p.Embed(context.Background(), "q")
				assert.NoError(t, err)
				_ = p.Dimensions()
			}
		}()
	}
	for i := 0; i < 20; i++ {
		assert.NoError(t, p.Close())
	}
	wg.Wait()
	assert.Equal(t, 2, p.Dimensions())
}
