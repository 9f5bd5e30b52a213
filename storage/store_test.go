package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordock/vectordock/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDoc(collection, content, source string) models.Document {
	return models.Document{
		Content:      content,
		CollectionID: collection,
		OwnerID:      "acct-1",
		Source:       source,
		Embedding:    []float32{0.1, 0.2, 0.3},
	}
}

func TestInsertBatchAssignsIDsAndTimestamps(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	batch := []models.Document{
		testDoc("kb-1", "first", "test"),
		testDoc("kb-1", "second", "test"),
		testDoc("kb-1", "third", "test"),
	}

	inserted, err := docs.InsertBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, inserted, 3)

	seen := map[string]bool{}
	for i, doc := range inserted {
		assert.Equal(t, batch[i].Content, doc.Content, "submission order must be preserved")
		assert.NotEmpty(t, doc.ID)
		assert.False(t, doc.CreatedAt.IsZero())
		assert.False(t, seen[doc.ID], "ids must be unique")
		seen[doc.ID] = true
	}
}

func TestInsertBatchTwiceProducesDistinctIDs(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	batch := []models.Document{testDoc("kb-1", "same text", "test")}

	first, err := docs.InsertBatch(ctx, batch)
	require.NoError(t, err)
	second, err := docs.InsertBatch(ctx, batch)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].ID, second[0].ID)

	count, err := docs.CountByCollection(ctx, "kb-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertBatchIsAtomic(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	good := testDoc("kb-1", "fine", "test")
	bad := testDoc("kb-1", "breaks marshalling", "test")
	bad.Metadata = map[string]interface{}{"bad": make(chan int)}

	_, err := docs.InsertBatch(ctx, []models.Document{good, bad})
	require.Error(t, err)

	count, err := docs.CountByCollection(ctx, "kb-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "failed batch must persist nothing")
}

func TestListByCollection(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	_, err := docs.InsertBatch(ctx, []models.Document{
		testDoc("kb-1", "alpha", "test"),
		testDoc("kb-1", "beta", "test"),
	})
	require.NoError(t, err)
	_, err = docs.InsertBatch(ctx, []models.Document{
		testDoc("kb-2", "other collection", "test"),
	})
	require.NoError(t, err)

	listed, err := docs.ListByCollection(ctx, "kb-1", 50)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "alpha", listed[0].Content)
	assert.Equal(t, "beta", listed[1].Content)
	for _, doc := range listed {
		assert.Equal(t, "kb-1", doc.CollectionID)
	}
}

func TestListByCollectionEmptyIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	listed, err := store.Documents().ListByCollection(context.Background(), "nothing-here", 50)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.NotNil(t, listed, "empty collection must serialize as [], not null")
}

func TestListByCollectionRespectsLimit(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	batch := make([]models.Document, 55)
	for i := range batch {
		batch[i] = testDoc("kb-big", fmt.Sprintf("doc %d", i), "test")
	}
	_, err := docs.InsertBatch(ctx, batch)
	require.NoError(t, err)

	listed, err := docs.ListByCollection(ctx, "kb-big", 50)
	require.NoError(t, err)
	assert.Len(t, listed, 50)
}

func TestInsertBatchIsInjectionSafe(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	hostile := testDoc("kb-1", `'; DROP TABLE documents; --`, `source', 'x`)
	hostile.Metadata = map[string]interface{}{"note": `"); DELETE FROM documents; --`}

	inserted, err := docs.InsertBatch(ctx, []models.Document{hostile})
	require.NoError(t, err)

	// Content must come back verbatim and the table must still exist.
	got, err := docs.GetDocument(ctx, inserted[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `'; DROP TABLE documents; --`, got.Content)
	assert.Equal(t, `source', 'x`, got.Source)

	count, err := docs.CountByCollection(ctx, "kb-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetDocumentRoundTripsEmbedding(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	doc := testDoc("kb-1", "hello", "test")
	doc.Embedding = []float32{1.5, -2.25, 0.125}
	doc.Metadata = map[string]interface{}{"lang": "en"}

	inserted, err := docs.InsertBatch(ctx, []models.Document{doc})
	require.NoError(t, err)

	got, err := docs.GetDocument(ctx, inserted[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float32{1.5, -2.25, 0.125}, got.Embedding)
	assert.Equal(t, "en", got.Metadata["lang"])
}

func TestGetDocumentMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Documents().GetDocument(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteBySource(t *testing.T) {
	store := newTestStore(t)
	docs := store.Documents()
	ctx := context.Background()

	_, err := docs.InsertBatch(ctx, []models.Document{
		testDoc("kb-1", "chunk 1", "/notes/a.md"),
		testDoc("kb-1", "chunk 2", "/notes/a.md"),
		testDoc("kb-1", "keep me", "/notes/b.md"),
	})
	require.NoError(t, err)

	require.NoError(t, docs.DeleteBySource(ctx, "kb-1", "/notes/a.md"))

	listed, err := docs.ListByCollection(ctx, "kb-1", 50)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "keep me", listed[0].Content)
}

func TestAPIKeyLookup(t *testing.T) {
	store := newTestStore(t)
	keys := store.APIKeys()
	ctx := context.Background()

	require.NoError(t, keys.SaveKey(ctx, "sk-valid", "acct-42"))

	account, err := keys.LookupAccount(ctx, "sk-valid")
	require.NoError(t, err)
	assert.Equal(t, "acct-42", account)

	_, err = keys.LookupAccount(ctx, "sk-unknown")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestAPIKeySaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	keys := store.APIKeys()
	ctx := context.Background()

	require.NoError(t, keys.SaveKey(ctx, "sk-1", "acct-old"))
	require.NoError(t, keys.SaveKey(ctx, "sk-1", "acct-new"))

	account, err := keys.LookupAccount(ctx, "sk-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-new", account)
}

func TestAPIKeyDelete(t *testing.T) {
	store := newTestStore(t)
	keys := store.APIKeys()
	ctx := context.Background()

	require.NoError(t, keys.SaveKey(ctx, "sk-1", "acct-1"))
	require.NoError(t, keys.DeleteKey(ctx, "sk-1"))

	_, err := keys.LookupAccount(ctx, "sk-1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
