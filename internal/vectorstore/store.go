package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Document is one embedded chunk of extracted PDF text.
type Document struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int    `json:"page"`
	// Embedding is carried for ranking only and never serialized.
	Embedding []float32 `json:"-"`
}

// Result is a document returned from a similarity query.
type Result struct {
	Document
	Similarity float32 `json:"similarity"`
}

// Store persists (id, text, vector) triples and answers nearest-neighbour
// queries. The application only appends and queries; deletion is owned by the
// backing service.
type Store interface {
	Init(ctx context.Context) error
	Add(ctx context.Context, docs []Document) error
	Query(ctx context.Context, embedding []float32, limit int) ([]Result, error)
}

// Config is passed to backend factories. Data holds backend-specific settings
// decoded by the factory itself.
type Config struct {
	Collection string
	Dimension  int
	Data       interface{}
}

type Factory func(cfg Config) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(storeType string, cfg Config) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(storeType))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("vector_store.collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector_store.dimension must be positive")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", storeType)
	}
	return factory(cfg)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
