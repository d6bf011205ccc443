package vectorstore

import (
	"context"
	"math"
)

// Retriever wraps a Store with maximal-marginal-relevance re-ranking: it
// over-fetches candidates by similarity, then greedily picks results that
// balance query relevance against redundancy with already-picked chunks.
type Retriever struct {
	store  Store
	topK   int
	fetchK int
	lambda float64
}

func NewRetriever(store Store, topK, fetchK int, lambda float64) *Retriever {
	if fetchK < topK {
		fetchK = topK
	}
	return &Retriever{store: store, topK: topK, fetchK: fetchK, lambda: lambda}
}

func (r *Retriever) Retrieve(ctx context.Context, embedding []float32) ([]Result, error) {
	candidates, err := r.store.Query(ctx, embedding, r.fetchK)
	if err != nil {
		return nil, err
	}
	return MMR(embedding, candidates, r.topK, r.lambda), nil
}

// MMR selects up to k results maximizing
// lambda*sim(query, d) - (1-lambda)*max(sim(d, picked)). With lambda 1 it
// degenerates to plain similarity order.
func MMR(query []float32, candidates []Result, k int, lambda float64) []Result {
	if k >= len(candidates) {
		return candidates
	}
	selected := make([]Result, 0, k)
	remaining := make([]Result, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			relevance := Cosine(query, cand.Embedding)
			redundancy := 0.0
			for _, picked := range selected {
				if sim := Cosine(cand.Embedding, picked.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// Cosine returns the cosine similarity of two vectors, 0 when either is empty
// or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
