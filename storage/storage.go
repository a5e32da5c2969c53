package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// AssetKind classifies an uploaded blob.
type AssetKind string

const (
	KindCover AssetKind = "cover"
	KindAudio AssetKind = "audio"
)

var (
	// ErrValidation means a required upload field was absent.
	ErrValidation = errors.New("missing required field")
	// ErrPathTraversal means a resolved path escaped the base directory.
	ErrPathTraversal = errors.New("invalid path")
	// ErrNotFound means the referenced asset does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUpload wraps filesystem or object-store faults while storing a blob.
	ErrUpload = errors.New("upload failed")
)

// RefPrefix is the URL namespace under which stored assets are served.
// Store returns paths below it; callers treat them as opaque handles.
const RefPrefix = "/api/files/"

// BlobStore writes uploaded assets and reads them back by reference path.
//
// Filenames are deterministic per (owner, kind, index), so storing the same
// classification twice overwrites the earlier payload. Removal of a vinyl
// does not remove its blobs; orphaned assets accumulate.
type BlobStore interface {
	// Store writes payload under the owner's asset directory and returns the
	// reference path clients later resolve through Read.
	Store(ctx context.Context, ownerID string, kind AssetKind, trackIndex int, originalFilename string, payload io.Reader) (string, error)

	// Read resolves reference-path segments and returns the complete asset
	// contents with the inferred content type. Whole files are buffered in
	// memory; there is no range or streaming support.
	Read(ctx context.Context, segments []string) ([]byte, string, error)
}

// OwnerDir is the directory name holding all assets of one vinyl.
func OwnerDir(ownerID string) string {
	return "vinyl-" + ownerID
}

// AssetFilename derives the stored filename for a blob. Covers are always
// "cover.<ext>" and audio "track-<n>.<ext>", with the extension taken from
// the uploaded filename (jpg respectively mp3 when it has none).
func AssetFilename(kind AssetKind, trackIndex int, originalFilename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalFilename), "."))
	if kind == KindCover {
		if ext == "" {
			ext = "jpg"
		}
		return "cover." + ext
	}
	if ext == "" {
		ext = "mp3"
	}
	return fmt.Sprintf("track-%d.%s", trackIndex, ext)
}

// ReferencePath builds the opaque handle returned to clients.
func ReferencePath(ownerDir, filename string) string {
	return RefPrefix + ownerDir + "/" + filename
}

func validateUpload(ownerID string, payload io.Reader) error {
	if ownerID == "" {
		return fmt.Errorf("%w: vinylId", ErrValidation)
	}
	if payload == nil {
		return fmt.Errorf("%w: file", ErrValidation)
	}
	return nil
}
