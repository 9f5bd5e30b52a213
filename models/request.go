package models

// DocumentRecord is one element of the POST /documents request body: the raw
// text to embed plus where it came from. Metadata is opaque to the service.
type DocumentRecord struct {
	Content  string                 `json:"content" binding:"required"`
	Source   string                 `json:"source"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
