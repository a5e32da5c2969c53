package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vinylfm/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary() *model.Library {
	return &model.Library{
		Vinyls: []model.Vinyl{
			{ID: "v1", Title: "A", Artist: "B", CoverPath: "/api/files/vinyl-v1/cover.jpg", CreatedAt: 1000},
		},
		Tracks: []model.Track{
			{ID: "t1", VinylID: "v1", Title: "Song", Order: 1, Side: model.SideA, DiskNumber: 1, AudioPath: "/api/files/vinyl-v1/track-1.mp3"},
		},
	}
}

func TestLoadWithoutDocument(t *testing.T) {
	repo := NewFileLibraryRepository(t.TempDir())

	lib, exists, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, model.EmptyLibrary(), lib)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	repo := NewFileLibraryRepository(t.TempDir())
	want := testLibrary()

	require.NoError(t, repo.Save(context.Background(), want))

	got, exists, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, want, got)
}

func TestSaveOverwritesWholeDocument(t *testing.T) {
	repo := NewFileLibraryRepository(t.TempDir())

	require.NoError(t, repo.Save(context.Background(), testLibrary()))
	require.NoError(t, repo.Save(context.Background(), model.EmptyLibrary()))

	got, exists, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, got.Vinyls)
	assert.Empty(t, got.Tracks)
}

func TestLoadUnparsableDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LibraryFileName), []byte("{not json"), 0644))
	repo := NewFileLibraryRepository(dir)

	lib, exists, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, model.EmptyLibrary(), lib)
}

func TestLoadNormalizesNullCollections(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LibraryFileName), []byte(`{"vinyls":null,"tracks":null}`), 0644))
	repo := NewFileLibraryRepository(dir)

	lib, exists, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NotNil(t, lib.Vinyls)
	assert.NotNil(t, lib.Tracks)
}

func TestSaveReportsPersistError(t *testing.T) {
	// Point the repository below a regular file so the directory cannot be
	// created.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	repo := NewFileLibraryRepository(filepath.Join(blocker, "lib"))

	err := repo.Save(context.Background(), model.EmptyLibrary())
	assert.ErrorIs(t, err, ErrPersist)
}
