package tokenizer

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordEncoder struct{}

func (wordEncoder) Count(text string) int { return len(strings.Fields(text)) }

func countingLoader(calls *atomic.Int32) Loader {
	return func(model string) (Encoder, error) {
		calls.Add(1)
		return wordEncoder{}, nil
	}
}

func TestCounter_MemoizesPerModel(t *testing.T) {
	var calls atomic.Int32
	c := NewWithLoader(countingLoader(&calls))

	assert.Equal(t, 3, c.Count("one two three", "m1"))
	assert.Equal(t, 2, c.Count("one two", "m1"))
	assert.Equal(t, 1, c.Count("one", "m2"))

	assert.Equal(t, int32(2), calls.Load(), "one load per model, not per text")
}

func TestCounter_ConcurrentFirstAccess(t *testing.T) {
	var calls atomic.Int32
	c := NewWithLoader(countingLoader(&calls))

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 4, c.Count("a b c d", "shared"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCounter_ConcurrentMixedModels(t *testing.T) {
	var calls atomic.Int32
	c := NewWithLoader(countingLoader(&calls))
	require.Equal(t, 1, c.Count("warm", "m1"))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			model := "m1"
			if i%2 == 1 {
				model = "m2"
			}
			assert.Equal(t, 2, c.Count("x y", model))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
}

func TestCounter_LoaderErrorFallsBackToEstimate(t *testing.T) {
	c := NewWithLoader(func(string) (Encoder, error) {
		return nil, errors.New("boom")
	})
	text := strings.Repeat("word ", 300)
	assert.Equal(t, Estimate{}.Count(text), c.Count(text, "anything"))
}

func TestCounter_ForModel(t *testing.T) {
	var calls atomic.Int32
	c := NewWithLoader(countingLoader(&calls))

	mc := c.ForModel("")
	assert.Equal(t, DefaultModel, mc.Model())
	assert.Equal(t, 2, mc.Count("hello world"))
}

func TestTiktoken_KnownModel(t *testing.T) {
	c := New()
	assert.Equal(t, 2, c.Count("hello world", "gpt-3.5-turbo"))
	assert.Equal(t, 0, c.Count("", "gpt-3.5-turbo"))
}

func TestTiktoken_UnknownModelUsesDefaultEncoding(t *testing.T) {
	c := New()
	text := "Generative agents simulate believable human behavior."
	want := c.Count(text, "gpt-4")
	require.Positive(t, want)
	assert.Equal(t, want, c.Count(text, "no-such-model"))
}

func TestTiktoken_Deterministic(t *testing.T) {
	c := New()
	text := "# 1 Introduction\n你好，这是一个测试句子。\n"
	first := c.Count(text, DefaultModel)
	for range 5 {
		assert.Equal(t, first, c.Count(text, DefaultModel))
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word floors to one", "hi", 1},
		{"ten words", strings.Repeat("w ", 10), 13},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Estimate{}.Count(tc.text))
		})
	}
}
