package cache

import (
	"context"
	"sync"

	"vinylfm/logger"
	"vinylfm/model"
	"vinylfm/repository"
)

// LibraryCache mirrors the persisted library document in memory. The
// mirror is the source of truth for the running session: mutations update
// it synchronously and persist the whole document in the background. Each
// mutation returns a result channel the caller may await for durability;
// persist failures are logged, never rolled back.
//
// All persists drain through one writer goroutine in mutation order, so a
// session's own edits cannot overtake each other on the way to the store.
// Nothing protects against other processes writing concurrently; across
// writers the last write still wins.
type LibraryCache struct {
	mu     sync.Mutex
	repo   repository.LibraryRepository
	lib    *model.Library
	exists bool
	loaded bool

	persists chan persistJob
}

// persistJob carries one full-document snapshot to the writer goroutine.
type persistJob struct {
	snapshot *model.Library
	done     chan error
}

// New creates a cache over the given document store and starts its writer.
// Nothing is fetched until the first Load.
func New(repo repository.LibraryRepository) *LibraryCache {
	c := &LibraryCache{
		repo:     repo,
		persists: make(chan persistJob, 16),
	}
	go c.persistLoop()
	return c
}

// Load returns a copy of the current document and whether a persisted one
// exists. The backing store is consulted once; later calls serve the
// mirror until Invalidate. A store fault degrades to the empty document so
// reads never fail.
func (c *LibraryCache) Load(ctx context.Context) (*model.Library, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded(ctx)
	return c.lib.Clone(), c.exists
}

// ensureLoaded fetches the document if the mirror is cold. Callers hold mu.
func (c *LibraryCache) ensureLoaded(ctx context.Context) {
	if c.loaded {
		return
	}
	lib, exists, err := c.repo.Load(ctx)
	if err != nil {
		logger.Error("loading library failed", logger.ErrorField(err))
		lib, exists = model.EmptyLibrary(), false
	}
	c.lib = lib
	c.exists = exists
	c.loaded = true
}

// Replace swaps in a whole new document and waits for the persist. The
// full-document HTTP replace goes through here, and it must report persist
// failures to its caller. The write still queues behind any pending
// background persists so it cannot be overwritten by an older snapshot.
func (c *LibraryCache) Replace(ctx context.Context, lib *model.Library) error {
	c.mu.Lock()
	c.lib = lib.Clone()
	c.exists = true
	c.loaded = true
	done := c.enqueuePersist()
	c.mu.Unlock()

	return <-done
}

// AddVinyl appends a vinyl and its tracks, then persists in the
// background. The local mutation has already happened when this returns;
// the channel reports only whether it also became durable.
func (c *LibraryCache) AddVinyl(vinyl model.Vinyl, tracks []model.Track) <-chan error {
	c.mu.Lock()
	c.ensureLoaded(context.Background())
	c.lib.Vinyls = append(c.lib.Vinyls, vinyl)
	c.lib.Tracks = append(c.lib.Tracks, tracks...)
	c.exists = true
	done := c.enqueuePersist()
	c.mu.Unlock()

	return done
}

// RemoveVinyl drops the vinyl and cascades to its tracks, then persists in
// the background. Asset files are left in place; removal never garbage
// collects blobs.
func (c *LibraryCache) RemoveVinyl(vinylID string) <-chan error {
	c.mu.Lock()
	c.ensureLoaded(context.Background())
	c.lib.RemoveVinyl(vinylID)
	done := c.enqueuePersist()
	c.mu.Unlock()

	return done
}

// Invalidate drops the mirror so the next Load rereads the backing store.
// The watcher calls this when another writer touches the document file.
func (c *LibraryCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// enqueuePersist snapshots the mirror and hands it to the writer. Callers
// hold mu, which makes queue order identical to mutation order.
func (c *LibraryCache) enqueuePersist() chan error {
	done := make(chan error, 1)
	c.persists <- persistJob{snapshot: c.lib.Clone(), done: done}
	return done
}

// persistLoop is the single writer: snapshots are saved strictly in the
// order their mutations happened.
func (c *LibraryCache) persistLoop() {
	for job := range c.persists {
		err := c.repo.Save(context.Background(), job.snapshot)
		if err != nil {
			logger.Error("background library persist failed", logger.ErrorField(err))
		}
		job.done <- err
		close(job.done)
	}
}
