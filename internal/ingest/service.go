package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/filestore"
	"pdfchat/internal/vectorstore"
)

// Result reports what a single upload produced.
type Result struct {
	Source   string   `json:"source"`
	Pages    int      `json:"pages"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Service runs the upload-to-vector-store pipeline: stage the PDF on disk,
// extract per-page text, split it into overlapping chunks, embed each chunk
// and append all of them to the store. Every chunk gets a fresh UUID, so
// re-ingesting the same file appends a second full set.
type Service struct {
	embedder   ai.IEmbedder
	store      vectorstore.Store
	archive    filestore.Store
	splitter   textsplitter.RecursiveCharacter
	stagingDir string
	extract    func(path string) ([]Page, error)
}

func NewService(embedder ai.IEmbedder, store vectorstore.Store, archive filestore.Store, chunkSize, chunkOverlap int, stagingDir string) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		archive:  archive,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		stagingDir: stagingDir,
		extract:    ExtractPages,
	}
}

func (s *Service) IngestPDF(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("source", filename))

	staged, err := s.stage(r)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(staged)

	if s.archive != nil {
		if err := s.archiveUpload(ctx, filename, staged); err != nil {
			// Archival is best effort; the pipeline proceeds on the staged copy.
			logger.Warn("archive upload failed", zap.Error(err))
		}
	}

	pages, err := s.extract(staged)
	if err != nil {
		return nil, err
	}

	docs, err := s.chunk(filename, pages)
	if err != nil {
		return nil, err
	}
	logger.Info("document chunked", zap.Int("pages", len(pages)), zap.Int("chunks", len(docs)))

	for i := range docs {
		embedding, err := s.embedder.Embed(ctx, docs[i].Content)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", docs[i].ID, err)
		}
		docs[i].Embedding = embedding
	}

	if err := s.store.Add(ctx, docs); err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	logger.Info("document ingested", zap.Int("stored", len(ids)))
	return &Result{Source: filename, Pages: len(pages), ChunkIDs: ids}, nil
}

func (s *Service) chunk(filename string, pages []Page) ([]vectorstore.Document, error) {
	var docs []vectorstore.Document
	for _, page := range pages {
		parts, err := s.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			docs = append(docs, vectorstore.Document{
				ID:      uuid.NewString(),
				Content: part,
				Source:  filename,
				Page:    page.Number,
			})
		}
	}
	return docs, nil
}

func (s *Service) stage(r io.Reader) (string, error) {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.stagingDir, "upload-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (s *Service) archiveUpload(ctx context.Context, filename, staged string) error {
	f, err := os.Open(staged)
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}
	key := uuid.NewString() + "-" + filepath.Base(filename)
	return s.archive.Save(ctx, key, f, stat.Size())
}
