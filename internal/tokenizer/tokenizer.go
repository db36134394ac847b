// Package tokenizer counts model tokens with memoized per-model encoders.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-3.5-turbo"
	// DefaultEncoding is the fallback for models tiktoken does not know.
	DefaultEncoding = "cl100k_base"
)

// Encoder measures text in tokens.
type Encoder interface {
	Count(text string) int
}

// Loader resolves the encoder for a model identifier.
type Loader func(model string) (Encoder, error)

var offlineOnce sync.Once

// TiktokenLoader resolves encoders with tiktoken. BPE ranks come from the
// embedded offline loader, so no network access is needed.
func TiktokenLoader(model string) (Encoder, error) {
	offlineOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	tk, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tk, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load encoding %s: %w", DefaultEncoding, err)
		}
	}
	return tiktokenEncoder{tk: tk}, nil
}

type tiktokenEncoder struct {
	tk *tiktoken.Tiktoken
}

func (e tiktokenEncoder) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.tk.Encode(text, nil, nil))
}

// Counter caches one encoder per model identifier. Safe for concurrent use.
type Counter struct {
	load Loader

	mu       sync.RWMutex
	encoders map[string]Encoder
}

// New returns a Counter backed by tiktoken.
func New() *Counter {
	return NewWithLoader(TiktokenLoader)
}

// NewWithLoader returns a Counter that resolves encoders through load.
func NewWithLoader(load Loader) *Counter {
	return &Counter{
		load:     load,
		encoders: make(map[string]Encoder),
	}
}

// Count returns the number of tokens text encodes to under model.
func (c *Counter) Count(text, model string) int {
	return c.encoder(model).Count(text)
}

// ForModel binds the counter to a single model.
func (c *Counter) ForModel(model string) ModelCounter {
	if model == "" {
		model = DefaultModel
	}
	return ModelCounter{counter: c, model: model}
}

func (c *Counter) encoder(model string) Encoder {
	c.mu.RLock()
	enc, ok := c.encoders[model]
	c.mu.RUnlock()
	if ok {
		return enc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encoders[model]; ok {
		return enc
	}
	enc, err := c.load(model)
	if err != nil || enc == nil {
		enc = Estimate{}
	}
	c.encoders[model] = enc
	return enc
}

// ModelCounter counts tokens for one fixed model.
type ModelCounter struct {
	counter *Counter
	model   string
}

// Count returns the number of tokens in text.
func (m ModelCounter) Count(text string) int {
	return m.counter.Count(text, m.model)
}

// Model returns the bound model identifier.
func (m ModelCounter) Model() string {
	return m.model
}
