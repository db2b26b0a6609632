package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactStore keeps rendered export artifacts on local disk under a
// single base directory. Artifacts are throwaway files; the store sweeps
// anything older than the configured TTL.
type ArtifactStore struct {
	baseDir string
}

// NewArtifactStore creates the base directory if needed.
func NewArtifactStore(baseDir string) (*ArtifactStore, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &ArtifactStore{baseDir: baseDir}, nil
}

// Save writes payload under name and returns the relative path.
func (s *ArtifactStore) Save(name string, payload []byte) (string, error) {
	path := s.abs(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read handle for a stored artifact.
func (s *ArtifactStore) Open(name string) (*os.File, error) {
	file, err := os.Open(s.abs(name))
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return file, nil
}

// Remove deletes an artifact; a missing file is not an error.
func (s *ArtifactStore) Remove(name string) error {
	if err := os.Remove(s.abs(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %s: %w", name, err)
	}
	return nil
}

// Sweep deletes artifacts whose modification time is older than ttl and
// returns the relative names it removed.
func (s *ArtifactStore) Sweep(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string

	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep artifacts: %w", err)
	}
	return removed, nil
}

func (s *ArtifactStore) abs(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}
