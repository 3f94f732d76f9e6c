package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Store implements ports.SnapshotStore using the local filesystem.
// It stores each run, snapshot log included, as one JSON file in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".plangraph/runs".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".plangraph", "runs")
	}
	return &Store{BasePath: basePath}
}

// Save persists the run to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure runs directory: %w", err)
	}

	destPath := s.path(run.ID)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	// 1. Create Temp File
	// Same directory, so the rename below stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+run.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename
	// On Windows, os.Rename fails if dest exists. We must remove it first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing run file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to run file: %w", err)
	}

	return nil
}

// Load retrieves a run from its JSON file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}

// Delete removes the run file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}

	return nil
}

// List returns a summary of every stored run, oldest first.
func (s *Store) List(ctx context.Context) ([]domain.RunSummary, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.RunSummary{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := []domain.RunSummary{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		run, err := s.Load(ctx, name[:len(name)-len(".json")])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		runs = append(runs, run.Summary())
	}

	domain.SortRunSummaries(runs)
	return runs, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}
