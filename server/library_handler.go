package server

import (
	"encoding/json"
	"net/http"

	"vinylfm/logger"
	"vinylfm/model"
)

// libraryResponse is the GET /api/library payload.
type libraryResponse struct {
	Exists  bool           `json:"exists"`
	Library *model.Library `json:"library"`
}

// saveLibraryRequest is the POST /api/library payload: the full document.
type saveLibraryRequest struct {
	Library *model.Library `json:"library"`
}

// GetLibraryHandler returns the whole catalog. A missing document is the
// initial state, not a failure; this endpoint never errors to the caller.
func (h *APIHandler) GetLibraryHandler(w http.ResponseWriter, r *http.Request) {
	lib, exists := h.library.Load(r.Context())
	writeJSON(w, http.StatusOK, libraryResponse{Exists: exists, Library: lib})
}

// SaveLibraryHandler replaces the stored catalog with the posted document.
// There is no merge and no version check; two concurrent saves race and
// the last write wins.
func (h *APIHandler) SaveLibraryHandler(w http.ResponseWriter, r *http.Request) {
	var req saveLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid library payload", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.Library == nil {
		writeError(w, http.StatusBadRequest, "Missing 'library' in request body", "")
		return
	}
	if req.Library.Vinyls == nil {
		req.Library.Vinyls = []model.Vinyl{}
	}
	if req.Library.Tracks == nil {
		req.Library.Tracks = []model.Track{}
	}

	if err := h.library.Replace(r.Context(), req.Library); err != nil {
		logger.Error("saving library failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to save library", err.Error())
		return
	}

	logger.Info("library saved",
		logger.Int("vinyls", len(req.Library.Vinyls)),
		logger.Int("tracks", len(req.Library.Tracks)),
	)
	h.hub.Broadcast(libraryUpdated(req.Library))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
