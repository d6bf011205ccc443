package vectorstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type pgvectorConfig struct {
	DSN string `json:"dsn"`
}

// pgvectorStore keeps the collection in a Postgres table with a pgvector
// column, queried with the cosine distance operator.
type pgvectorStore struct {
	db        *sqlx.DB
	table     string
	dimension int
}

func init() {
	Register("pgvector", createPgvectorStore)
}

func createPgvectorStore(cfg Config) (Store, error) {
	args := &pgvectorConfig{}
	if err := decodeConfig(cfg.Data, args); err != nil {
		return nil, err
	}
	if args.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	db, err := sqlx.Connect("postgres", args.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &pgvectorStore{db: db, table: cfg.Collection, dimension: cfg.Dimension}, nil
}

func (s *pgvectorStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			page INT NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL
		)`, s.table, s.dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func (s *pgvectorStore) Add(ctx context.Context, docs []Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, source, page, embedding)
		VALUES ($1, $2, $3, $4, $5)`, s.table)
	for _, doc := range docs {
		_, err := s.db.ExecContext(ctx, query,
			doc.ID,
			doc.Content,
			doc.Source,
			doc.Page,
			pgvector.NewVector(doc.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *pgvectorStore) Query(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT id, content, source, page, embedding, 1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, s.table)
	var rows []struct {
		ID         string          `db:"id"`
		Content    string          `db:"content"`
		Source     string          `db:"source"`
		Page       int             `db:"page"`
		Embedding  pgvector.Vector `db:"embedding"`
		Similarity float32         `db:"similarity"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		res := Result{Similarity: row.Similarity}
		res.ID = row.ID
		res.Content = row.Content
		res.Source = row.Source
		res.Page = row.Page
		res.Embedding = row.Embedding.Slice()
		results = append(results, res)
	}
	return results, nil
}
