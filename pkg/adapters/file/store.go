package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

const publishedDir = "published"

// Store implements ports.DocumentStore and ports.Publisher using the local filesystem.
// It stores pages as JSON files in a configured directory; published
// snapshots go to its "published" subdirectory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".lattice/pages".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".lattice", "pages")
	}
	return &Store{BasePath: basePath}
}

func checkPageID(pageID string) error {
	if pageID == "" {
		return fmt.Errorf("pageID cannot be empty")
	}
	if strings.ContainsAny(pageID, `/\`) || pageID == "." || pageID == ".." {
		return fmt.Errorf("invalid pageID %q", pageID)
	}
	return nil
}

// Save persists the document to a JSON file atomically.
func (s *Store) Save(ctx context.Context, pageID string, doc domain.Document) error {
	if err := checkPageID(pageID); err != nil {
		return err
	}
	return writeJSON(s.BasePath, pageID, doc)
}

// Publish persists the published snapshot atomically.
func (s *Store) Publish(ctx context.Context, pageID string, doc domain.Document) error {
	if err := checkPageID(pageID); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.BasePath, publishedDir), pageID, doc)
}

// writeJSON writes to a temporary file first, syncs via fsync, and then
// renames it to the destination.
func writeJSON(dir, pageID string, doc domain.Document) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure page directory: %w", err)
	}

	destPath := filepath.Join(dir, pageID+".json")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+pageID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing page file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to page file: %w", err)
	}
	return nil
}

// Load retrieves the document from its JSON file.
func (s *Store) Load(ctx context.Context, pageID string) (domain.Document, error) {
	if err := checkPageID(pageID); err != nil {
		return nil, err
	}
	return readJSON(filepath.Join(s.BasePath, pageID+".json"))
}

// Published retrieves the last published snapshot.
func (s *Store) Published(ctx context.Context, pageID string) (domain.Document, error) {
	if err := checkPageID(pageID); err != nil {
		return nil, err
	}
	return readJSON(filepath.Join(s.BasePath, publishedDir, pageID+".json"))
}

func readJSON(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return doc, nil
}

// Delete removes the page file. The published snapshot is kept.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	if err := checkPageID(pageID); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.BasePath, pageID+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete page file: %w", err)
	}
	return nil
}

// List returns all stored page IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	var pages []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		pages = append(pages, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(pages)
	return pages, nil
}
