package services

import "context"

// Embedder turns an ordered batch of texts into one vector per text, in the
// same order. Implementations must be safe for concurrent use and fail as a
// unit: either every text embeds or the whole call errors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
