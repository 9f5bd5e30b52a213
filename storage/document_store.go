package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vectordock/vectordock/models"
)

// DocumentStore persists documents. All caller-supplied values travel through
// parameter binding only; nothing is ever interpolated into SQL text.
type DocumentStore struct {
	db *sql.DB
}

// ListByCollection returns up to limit documents of a collection in insertion
// order. Embeddings are not loaded for listings.
func (s *DocumentStore) ListByCollection(ctx context.Context, collectionID string, limit int) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, owner_id, content, source, metadata, created_at
		FROM documents WHERE collection_id = ?
		ORDER BY rowid
		LIMIT ?
	`, collectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		var metadataJSON sql.NullString
		if err := rows.Scan(&doc.ID, &doc.CollectionID, &doc.OwnerID, &doc.Content,
			&doc.Source, &metadataJSON, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// InsertBatch persists all documents in one transaction: either every record
// commits or none do. IDs and creation timestamps are assigned here; the
// completed documents are returned in input order.
func (s *DocumentStore) InsertBatch(ctx context.Context, docs []models.Document) ([]models.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, collection_id, owner_id, content, source, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata: %w", err)
		}

		doc.ID = uuid.New().String()
		doc.CreatedAt = now

		if _, err := stmt.ExecContext(ctx, doc.ID, doc.CollectionID, doc.OwnerID,
			doc.Content, doc.Source, string(metadataJSON),
			float32SliceToBytes(doc.Embedding), doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("inserting document: %w", err)
		}
		inserted = append(inserted, doc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// GetDocument retrieves a single document by ID, embedding included.
// Returns nil when no document matches.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, owner_id, content, source, metadata, embedding, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc models.Document
	var metadataJSON sql.NullString
	var embeddingBlob []byte
	if err := row.Scan(&doc.ID, &doc.CollectionID, &doc.OwnerID, &doc.Content,
		&doc.Source, &metadataJSON, &embeddingBlob, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Embedding = bytesToFloat32Slice(embeddingBlob)
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// DeleteBySource removes every document of a collection with the given
// source. The file indexer uses this to drop stale chunks before re-indexing.
func (s *DocumentStore) DeleteBySource(ctx context.Context, collectionID, source string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection_id = ? AND source = ?",
		collectionID, source)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// CountByCollection returns the number of documents in a collection.
func (s *DocumentStore) CountByCollection(ctx context.Context, collectionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection_id = ?",
		collectionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
