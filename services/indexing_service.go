package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/vectordock/vectordock/models"
)

// FileIndexingService keeps a directory in sync with a collection: files are
// extracted, chunked, embedded, and batch-inserted through the same
// DocumentService path the HTTP endpoint uses. Each file's chunks share the
// file path as their source, so a changed file can be replaced wholesale.
type FileIndexingService struct {
	documents    DocumentService
	ownerID      string
	collectionID string
}

// NewFileIndexingService creates a new indexing service. Chunks are inserted
// into collectionID on behalf of ownerID.
func NewFileIndexingService(documents DocumentService, ownerID, collectionID string) *FileIndexingService {
	return &FileIndexingService{
		documents:    documents,
		ownerID:      ownerID,
		collectionID: collectionID,
	}
}

// WatchDirectory starts a long-running process to watch for file changes in real-time.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	// Goroutine to handle events from the watcher.
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// We only care about supported file types.
				if !isSupportedFile(event.Name) {
					continue
				}

				log.Printf("WATCHER EVENT: %s", event)

				// A Create or Write event means we need to index the file.
				// Many editors perform a "write" by creating a temp file and renaming,
				// which can trigger multiple events. We handle Create and Write the same.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					if err := s.ReindexFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					// Rename is often treated as Remove by watchers.
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					if err := s.documents.DeleteBySource(ctx, s.collectionID, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to delete records for %s: %v", event.Name, err)
					}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	// Block until the context is cancelled (e.g., server shutdown).
	<-ctx.Done()
}

// ScanAndIndexDirectory walks the directory once and indexes every supported
// file. Run at startup before watching so pre-existing files are covered.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isSupportedFile(path) {
			log.Printf("INDEXER: Indexing file: %s", path)
			if err := s.ReindexFile(ctx, path); err != nil {
				log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("INDEXER: Directory scan finished.")
}

// ReindexFile replaces a file's chunks in the collection: its old documents
// are deleted by source, then the current content is chunked and inserted as
// one atomic batch.
func (s *FileIndexingService) ReindexFile(ctx context.Context, path string) error {
	content, err := ExtractTextFromFile(path)
	if err != nil {
		return fmt.Errorf("extracting text from %s: %w", path, err)
	}

	hash, err := calculateFileHash(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(1000),
		textsplitter.WithChunkOverlap(100),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return fmt.Errorf("splitting %s: %w", path, err)
	}
	log.Printf("INDEXER: Split %s into %d chunks.", path, len(chunks))

	// Drop stale chunks before inserting the new ones.
	if err := s.documents.DeleteBySource(ctx, s.collectionID, path); err != nil {
		return fmt.Errorf("deleting old chunks of %s: %w", path, err)
	}

	if len(chunks) == 0 {
		return nil
	}

	records := make([]models.DocumentRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = models.DocumentRecord{
			Content: chunk,
			Source:  path,
			Metadata: map[string]interface{}{
				"file_hash": hash,
				"chunk_num": i,
			},
		}
	}

	if _, err := s.documents.Insert(ctx, s.ownerID, s.collectionID, records); err != nil {
		return fmt.Errorf("inserting chunks of %s: %w", path, err)
	}
	return nil
}

func isSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
