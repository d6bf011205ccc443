package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

type chromemConfig struct {
	Path string `json:"path"`
}

// chromemStore keeps the collection in an embedded chromem-go database. With a
// path configured the collection is persisted on disk; without one it lives in
// memory only.
type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

func init() {
	Register("chromem", createChromemStore)
}

func createChromemStore(cfg Config) (Store, error) {
	args := &chromemConfig{}
	if err := decodeConfig(cfg.Data, args); err != nil {
		return nil, err
	}
	var db *chromem.DB
	var err error
	if args.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(args.Path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}
	return &chromemStore{db: db, name: cfg.Collection}, nil
}

func (s *chromemStore) Init(ctx context.Context) error {
	_ = ctx
	collection, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("get or create collection: %w", err)
	}
	s.collection = collection
	return nil
}

func (s *chromemStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	converted := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		converted = append(converted, chromem.Document{
			ID:      doc.ID,
			Content: doc.Content,
			Metadata: map[string]string{
				"source": doc.Source,
				"page":   strconv.Itoa(doc.Page),
			},
			Embedding: doc.Embedding,
		})
	}
	if err := s.collection.AddDocuments(ctx, converted, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *chromemStore) Query(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	// chromem rejects queries asking for more results than stored documents.
	if count := s.collection.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		return nil, nil
	}
	matches, err := s.collection.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		res := Result{Similarity: m.Similarity}
		res.ID = m.ID
		res.Content = m.Content
		res.Embedding = m.Embedding
		res.Source = m.Metadata["source"]
		if page, err := strconv.Atoi(m.Metadata["page"]); err == nil {
			res.Page = page
		}
		results = append(results, res)
	}
	return results, nil
}
