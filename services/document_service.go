package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vectordock/vectordock/models"
)

// ListLimit caps the number of documents a single listing returns.
const ListLimit = 50

// DocumentService defines the ingestion endpoint's two operations.
type DocumentService interface {
	// List returns up to ListLimit documents of a collection, oldest first.
	// An empty collection yields an empty slice, not an error.
	List(ctx context.Context, collectionID string) ([]models.Document, error)

	// Insert embeds every record's content in one provider call, then
	// persists all records as a single atomic batch owned by ownerID.
	// The persisted documents come back in submission order. Nothing is
	// committed if embedding or storage fails.
	Insert(ctx context.Context, ownerID, collectionID string, records []models.DocumentRecord) ([]models.Document, error)

	// DeleteBySource drops every document of a collection with the given
	// source. Used by the file indexer to replace stale chunks.
	DeleteBySource(ctx context.Context, collectionID, source string) error
}

// DocumentStore is the storage surface the service needs. Both calls are a
// single round trip; InsertBatch is all-or-nothing.
type DocumentStore interface {
	ListByCollection(ctx context.Context, collectionID string, limit int) ([]models.Document, error)
	InsertBatch(ctx context.Context, docs []models.Document) ([]models.Document, error)
	DeleteBySource(ctx context.Context, collectionID, source string) error
}

// documentServiceImpl holds the collaborators injected at construction.
type documentServiceImpl struct {
	store        DocumentStore
	embedder     Embedder
	embeddingDim int
	embedTimeout time.Duration
	storeTimeout time.Duration
}

// NewDocumentService creates the document service. embeddingDim is the
// provider's fixed vector dimensionality; every returned vector is checked
// against it before anything is persisted.
func NewDocumentService(store DocumentStore, embedder Embedder, embeddingDim int) DocumentService {
	return &documentServiceImpl{
		store:        store,
		embedder:     embedder,
		embeddingDim: embeddingDim,
		embedTimeout: 30 * time.Second,
		storeTimeout: 10 * time.Second,
	}
}

// List implements DocumentService.
func (s *documentServiceImpl) List(ctx context.Context, collectionID string) ([]models.Document, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("%w: missing collection_id", ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	docs, err := s.store.ListByCollection(ctx, collectionID, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("SERVICE: Listed %d documents for collection %q", len(docs), collectionID)
	return docs, nil
}

// Insert implements DocumentService.
func (s *documentServiceImpl) Insert(ctx context.Context, ownerID, collectionID string, records []models.DocumentRecord) ([]models.Document, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("%w: missing collection_id", ErrInvalidRequest)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing documents in request body", ErrInvalidRequest)
	}
	for i, rec := range records {
		if rec.Content == "" {
			return nil, fmt.Errorf("%w: document %d has empty content", ErrInvalidRequest, i)
		}
	}

	// One batched provider call for the whole request, order preserved.
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}

	embedCtx, cancelEmbed := context.WithTimeout(ctx, s.embedTimeout)
	defer cancelEmbed()
	vectors, err := s.embedder.EmbedDocuments(embedCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d documents", ErrEmbeddingFailure, len(vectors), len(records))
	}
	for i, vec := range vectors {
		if len(vec) != s.embeddingDim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d", ErrEmbeddingFailure, i, len(vec), s.embeddingDim)
		}
	}

	docs := make([]models.Document, len(records))
	for i, rec := range records {
		docs[i] = models.Document{
			Content:      rec.Content,
			Metadata:     rec.Metadata,
			Embedding:    vectors[i],
			CollectionID: collectionID,
			OwnerID:      ownerID,
			Source:       rec.Source,
		}
	}

	storeCtx, cancelStore := context.WithTimeout(ctx, s.storeTimeout)
	defer cancelStore()
	inserted, err := s.store.InsertBatch(storeCtx, docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.Printf("SERVICE: Inserted %d documents into collection %q", len(inserted), collectionID)
	return inserted, nil
}

// DeleteBySource implements DocumentService.
func (s *documentServiceImpl) DeleteBySource(ctx context.Context, collectionID, source string) error {
	if collectionID == "" || source == "" {
		return fmt.Errorf("%w: missing collection_id or source", ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.DeleteBySource(ctx, collectionID, source); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}
