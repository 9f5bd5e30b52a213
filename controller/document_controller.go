package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vectordock/vectordock/models"
	"github.com/vectordock/vectordock/services"
)

// APIKeyHeader carries the caller credential on every request.
const APIKeyHeader = "X-API-Key"

// accountIDKey is the gin context key the auth middleware stores the
// authenticated account id under.
const accountIDKey = "account_id"

// DocumentController handles the HTTP requests for the document ingestion
// API. It depends on the DocumentService to perform the actual work.
type DocumentController struct {
	documents services.DocumentService
}

// NewDocumentController is a constructor function that creates a new
// DocumentController. This is called from main.go to inject the service
// dependency.
func NewDocumentController(documents services.DocumentService) *DocumentController {
	return &DocumentController{
		documents: documents,
	}
}

// RequireAPIKey returns a middleware that verifies the caller's API key and
// stores the resolved account id on the request context. Requests without a
// valid key are rejected with 401 before any handler runs.
func RequireAPIKey(auth services.Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		accountID, err := auth.Verify(ctx.Request.Context(), ctx.GetHeader(APIKeyHeader))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: services.ErrUnauthorized.Error()})
			return
		}
		ctx.Set(accountIDKey, accountID)
		ctx.Next()
	}
}

// ListDocuments is the Gin handler for GET /api/v1/documents.
// It returns up to 50 documents of the requested collection.
func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	collectionID := ctx.Query("collection_id")
	if collectionID == "" {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing collection_id query parameter"})
		return
	}

	docs, err := c.documents.List(ctx.Request.Context(), collectionID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, docs)
}

// InsertDocuments is the Gin handler for POST /api/v1/documents.
// The body is a JSON array of records; all of them are embedded and
// persisted as one atomic batch.
func (c *DocumentController) InsertDocuments(ctx *gin.Context) {
	collectionID := ctx.Query("collection_id")
	if collectionID == "" {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing collection_id query parameter"})
		return
	}

	var records []models.DocumentRecord
	if err := ctx.ShouldBindJSON(&records); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	docs, err := c.documents.Insert(ctx.Request.Context(), ctx.GetString(accountIDKey), collectionID, records)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, docs)
}

// respondError maps a service error onto the HTTP surface: 401 for bad
// credentials, 400 for everything else. The failure kind survives only in
// the message body.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, services.ErrUnauthorized) {
		status = http.StatusUnauthorized
	}
	ctx.JSON(status, models.ErrorResponse{Error: err.Error()})
}
