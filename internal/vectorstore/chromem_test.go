package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) Store {
	t.Helper()
	store, err := New("chromem", Config{
		Collection: "pdf_store",
		Dimension:  3,
		Data:       map[string]interface{}{},
	})
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestChromemStore_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	docs := []Document{
		{ID: "1", Content: "cats are mammals", Source: "a.pdf", Page: 1, Embedding: []float32{1, 0, 0}},
		{ID: "2", Content: "dogs are mammals", Source: "a.pdf", Page: 1, Embedding: []float32{0.9, 0.1, 0}},
		{ID: "3", Content: "rust never sleeps", Source: "a.pdf", Page: 2, Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, store.Add(ctx, docs))

	results, err := store.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "1", results[0].ID)
	require.Equal(t, "cats are mammals", results[0].Content)
	require.Equal(t, "a.pdf", results[0].Source)
	require.Equal(t, 1, results[0].Page)
	require.Equal(t, "2", results[1].ID)
}

func TestChromemStore_QueryClampsLimitToCount(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.Add(ctx, []Document{
		{ID: "only", Content: "single", Embedding: []float32{0, 1, 0}},
	}))

	results, err := store.Query(ctx, []float32{0, 1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestChromemStore_QueryEmptyCollection(t *testing.T) {
	store := newMemoryStore(t)
	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New("nope", Config{Collection: "c", Dimension: 3})
	require.Error(t, err)
}

func TestNew_RequiresCollectionAndDimension(t *testing.T) {
	_, err := New("chromem", Config{Dimension: 3})
	require.Error(t, err)
	_, err = New("chromem", Config{Collection: "c"})
	require.Error(t, err)
}
