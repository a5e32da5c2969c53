package server

import (
	"errors"
	"net/http"
	"strings"

	"vinylfm/logger"
	"vinylfm/storage"
)

// FilesHandler serves stored assets by reference path. Reference paths are
// never reused for different content (filenames are owner+kind+index), so
// responses are immutably cacheable for a year.
func (h *APIHandler) FilesHandler(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, storage.RefPrefix)
	segments := strings.Split(rel, "/")

	data, contentType, err := h.blobs.Read(r.Context(), segments)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPathTraversal):
			logger.Warn("asset path rejected", logger.String("remoteAddr", r.RemoteAddr))
			writeError(w, http.StatusForbidden, "Invalid path", "")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "File not found", "")
		default:
			logger.Error("serving asset failed", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to serve file", "")
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(data); err != nil {
		logger.Error("writing asset response failed", logger.ErrorField(err))
	}
}
