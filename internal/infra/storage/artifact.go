package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore writes finished audio artifacts to the media directory.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the media directory if it does not exist.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// SaveWAV writes an episode's audio and returns its path.
func (s *ArtifactStore) SaveWAV(episodeID string, wav []byte) (string, error) {
	path := filepath.Join(s.dir, episodeID+".wav")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, wav, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return path, nil
}

// Open returns the artifact file for streaming.
func (s *ArtifactStore) Open(episodeID string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, episodeID+".wav"))
}

// Remove deletes an episode's artifact. A missing file is not an error.
func (s *ArtifactStore) Remove(episodeID string) error {
	err := os.Remove(filepath.Join(s.dir, episodeID+".wav"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
