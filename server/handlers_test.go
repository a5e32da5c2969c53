package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vinylfm/cache"
	"vinylfm/config"
	"vinylfm/model"
	"vinylfm/repository"
	"vinylfm/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *APIHandler) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{LibraryDir: dir, BlobDriver: "fs", LibraryStore: "file"}
	repo := repository.NewFileLibraryRepository(dir)
	blobs := storage.NewFSBlobStore(dir)
	api := NewAPIHandler(repo, blobs, cache.New(repo), NewEventHub(), cfg)
	return NewRouter(api), api
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

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

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetLibraryBeforeFirstSave(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/library", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp libraryResponse
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Exists)
	require.NotNil(t, resp.Library)
	assert.Empty(t, resp.Library.Vinyls)
	assert.Empty(t, resp.Library.Tracks)
}

func TestSaveThenGetLibrary(t *testing.T) {
	router, _ := newTestServer(t)
	want := testLibrary()

	body, err := json.Marshal(saveLibraryRequest{Library: want})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/library", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var saved map[string]bool
	decodeJSON(t, rec, &saved)
	assert.True(t, saved["success"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/library", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp libraryResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Exists)
	assert.Equal(t, want, resp.Library)
}

func TestSaveLibraryRejectsBadPayloads(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/library", strings.NewReader("{broken")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/library", strings.NewReader(`{"other":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, val := range fields {
		require.NoError(t, writer.WriteField(key, val))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadCoverThenServeIt(t *testing.T) {
	router, _ := newTestServer(t)
	payload := []byte("jpeg-bytes")

	body, contentType := multipartUpload(t, map[string]string{
		"vinylId":  "v1",
		"fileType": "cover",
	}, "artwork.jpg", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "/api/files/vinyl-v1/cover.jpg", resp.Path)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.Path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
}

func TestUploadAudioWithTrackIndex(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"vinylId":    "v1",
		"fileType":   "audio",
		"trackIndex": "2",
	}, "song.wav", []byte("wav-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Path string `json:"path"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "/api/files/vinyl-v1/track-2.wav", resp.Path)
}

func TestUploadValidation(t *testing.T) {
	router, _ := newTestServer(t)

	cases := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"missing vinylId", map[string]string{"fileType": "cover"}, "a.jpg"},
		{"bad fileType", map[string]string{"vinylId": "v1", "fileType": "video"}, "a.jpg"},
		{"bad trackIndex", map[string]string{"vinylId": "v1", "fileType": "audio", "trackIndex": "two"}, "a.mp3"},
		{"missing file", map[string]string{"vinylId": "v1", "fileType": "cover"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tc.fields, tc.file, []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServeMissingAsset(t *testing.T) {
	router, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/vinyl-v1/cover.jpg", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeDirectoryIsNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"vinylId":  "v1",
		"fileType": "cover",
	}, "a.jpg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/vinyl-v1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadOverSizeLimit(t *testing.T) {
	router, _ := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"vinylId":  "v1",
		"fileType": "cover",
	}, "a.jpg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = maxUploadSize + 1
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRejectedWhenSlotsSaturated(t *testing.T) {
	router, _ := newTestServer(t)

	// Occupy every slot so the next upload cannot acquire one.
	for i := 0; i < cap(uploadSlots); i++ {
		uploadSlots <- struct{}{}
	}
	defer func() {
		for i := 0; i < cap(uploadSlots); i++ {
			<-uploadSlots
		}
	}()

	body, contentType := multipartUpload(t, map[string]string{
		"vinylId":  "v1",
		"fileType": "cover",
	}, "a.jpg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEventsPushedAfterLibrarySave(t *testing.T) {
	router, api := newTestServer(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// The handshake can finish before the handler registers the
	// connection; wait until the hub sees it.
	require.Eventually(t, func() bool {
		api.hub.mu.Lock()
		defer api.hub.mu.Unlock()
		return len(api.hub.conns) == 1
	}, 5*time.Second, 10*time.Millisecond)

	body, err := json.Marshal(saveLibraryRequest{Library: testLibrary()})
	require.NoError(t, err)
	postResp, err := http.Post(srv.URL+"/api/library", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	postResp.Body.Close()
	require.Equal(t, http.StatusOK, postResp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev libraryEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "library-updated", ev.Type)
	assert.Equal(t, 1, ev.Vinyls)
	assert.Equal(t, 1, ev.Tracks)
}

func TestServeRejectsTraversal(t *testing.T) {
	// The router normalizes dotted paths before routing, so exercise the
	// handler directly with a hostile raw path.
	_, api := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/files/x", nil)
	req.URL.Path = "/api/files/../../etc/passwd"
	rec := httptest.NewRecorder()
	api.FilesHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "etc/passwd")
}
