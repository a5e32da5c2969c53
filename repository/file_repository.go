package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vinylfm/logger"
	"vinylfm/model"
)

// fileLibraryRepository keeps the document as a single pretty-printed JSON
// file under the library base directory.
type fileLibraryRepository struct {
	baseDir string
}

// NewFileLibraryRepository creates the default, file-backed document store.
func NewFileLibraryRepository(baseDir string) LibraryRepository {
	return &fileLibraryRepository{baseDir: baseDir}
}

func (r *fileLibraryRepository) path() string {
	return filepath.Join(r.baseDir, LibraryFileName)
}

// Load reads and parses the document file. Absence of a library is its
// initial state, so a missing or unreadable or unparsable file yields an
// empty document rather than an error.
func (r *fileLibraryRepository) Load(ctx context.Context) (*model.Library, bool, error) {
	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		logger.Warn("ensuring library directory failed", logger.ErrorField(err))
		return model.EmptyLibrary(), false, nil
	}

	data, err := os.ReadFile(r.path())
	if err != nil {
		return model.EmptyLibrary(), false, nil
	}

	lib := model.EmptyLibrary()
	if err := json.Unmarshal(data, lib); err != nil {
		logger.Warn("library file unparsable, treating as empty",
			logger.String("file", r.path()),
			logger.ErrorField(err),
		)
		return model.EmptyLibrary(), false, nil
	}
	if lib.Vinyls == nil {
		lib.Vinyls = []model.Vinyl{}
	}
	if lib.Tracks == nil {
		lib.Tracks = []model.Track{}
	}
	return lib, true, nil
}

// Save overwrites the document file with the serialized library.
func (r *fileLibraryRepository) Save(ctx context.Context, lib *model.Library) error {
	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.WriteFile(r.path(), data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	logger.Debug("library saved",
		logger.Int("vinyls", len(lib.Vinyls)),
		logger.Int("tracks", len(lib.Tracks)),
	)
	return nil
}
