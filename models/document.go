package models

import "time"

// Document is a single stored record: a chunk of text, its embedding vector,
// and the collection/account it belongs to. ID and CreatedAt are assigned by
// storage at insert time; documents are never updated after that.
type Document struct {
	ID           string                 `json:"id"`
	Content      string                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Embedding    []float32              `json:"embedding,omitempty"`
	CollectionID string                 `json:"collection_id"`
	OwnerID      string                 `json:"owner_id"`
	Source       string                 `json:"source"`
	CreatedAt    time.Time              `json:"created_at"`
}
