package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type qdrantConfig struct {
	URL            string `json:"url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// qdrantStore talks to a hosted Qdrant instance over its REST API. Collections
// are created with cosine distance on first Init.
type qdrantStore struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

func init() {
	Register("qdrant", createQdrantStore)
}

func createQdrantStore(cfg Config) (Store, error) {
	args := &qdrantConfig{}
	if err := decodeConfig(cfg.Data, args); err != nil {
		return nil, err
	}
	if args.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	timeout := time.Duration(args.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &qdrantStore{
		url:        strings.TrimSuffix(args.URL, "/"),
		apiKey:     args.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *qdrantStore) Init(ctx context.Context) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 200 when the collection already exists with this schema.
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

func (s *qdrantStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		points = append(points, map[string]interface{}{
			"id":     doc.ID,
			"vector": doc.Embedding,
			"payload": map[string]interface{}{
				"content": doc.Content,
				"source":  doc.Source,
				"page":    doc.Page,
			},
		})
	}
	body := map[string]interface{}{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

func (s *qdrantStore) Query(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	body := map[string]interface{}{
		"vector":       embedding,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Vector  []float32              `json:"vector"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := Result{Similarity: r.Score}
		res.ID = r.ID
		res.Embedding = r.Vector
		if v, ok := r.Payload["content"].(string); ok {
			res.Content = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			res.Source = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			res.Page = int(v)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *qdrantStore) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
