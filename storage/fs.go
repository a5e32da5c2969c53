package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vinylfm/logger"
)

// FSBlobStore stores assets as plain files under a base directory, one
// subdirectory per vinyl.
type FSBlobStore struct {
	baseDir string
}

// NewFSBlobStore creates a filesystem-backed blob store rooted at baseDir.
func NewFSBlobStore(baseDir string) *FSBlobStore {
	return &FSBlobStore{baseDir: baseDir}
}

// Store writes the payload to <base>/vinyl-<owner>/<filename>. The write is
// a single full-buffer write; a crash mid-write can leave a truncated file.
func (s *FSBlobStore) Store(ctx context.Context, ownerID string, kind AssetKind, trackIndex int, originalFilename string, payload io.Reader) (string, error) {
	if err := validateUpload(ownerID, payload); err != nil {
		return "", err
	}

	dir := OwnerDir(ownerID)
	name := AssetFilename(kind, trackIndex, originalFilename)
	target, err := ResolveUnder(s.baseDir, dir, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	data, err := io.ReadAll(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	logger.Debug("stored asset",
		logger.String("owner", ownerID),
		logger.String("file", name),
		logger.Int("bytes", len(data)),
	)
	return ReferencePath(dir, name), nil
}

// Read loads the referenced asset whole into memory.
func (s *FSBlobStore) Read(ctx context.Context, segments []string) ([]byte, string, error) {
	target, err := ResolveUnder(s.baseDir, segments...)
	if err != nil {
		return nil, "", err
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("reading asset: %w", err)
	}
	// A directory is not a servable asset; report it like a missing file.
	if info.IsDir() {
		return nil, "", ErrNotFound
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("reading asset: %w", err)
	}
	return data, ContentTypeFor(target), nil
}
