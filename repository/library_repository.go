package repository

import (
	"context"
	"errors"

	"vinylfm/model"
)

// ErrPersist wraps storage faults while saving the library document.
var ErrPersist = errors.New("library persist failed")

// LibraryFileName is the document file kept under the library base
// directory by the file driver.
const LibraryFileName = "library.json"

// LibraryRepository loads and saves the whole library document. Save
// replaces the entire document in one shot; there is no per-vinyl or
// per-track granularity, no locking and no version check. Concurrent
// savers race and the last write wins.
type LibraryRepository interface {
	// Load returns the current document and whether one existed. A missing
	// or unparsable document is the initial state, reported as an empty
	// library with exists=false, not as an error. Drivers with a network
	// between them and the data may still return transport errors.
	Load(ctx context.Context) (*model.Library, bool, error)

	// Save serializes the full document and overwrites whatever was stored
	// before. Returns ErrPersist on an underlying storage fault.
	Save(ctx context.Context, lib *model.Library) error
}
