package server

import (
	"encoding/json"
	"net/http"

	"vinylfm/cache"
	"vinylfm/config"
	"vinylfm/logger"
	"vinylfm/repository"
	"vinylfm/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	repo    repository.LibraryRepository
	blobs   storage.BlobStore
	library *cache.LibraryCache
	hub     *EventHub
	cfg     *config.Config
}

// NewAPIHandler creates the handler set with its collaborators.
func NewAPIHandler(
	repo repository.LibraryRepository,
	blobs storage.BlobStore,
	library *cache.LibraryCache,
	hub *EventHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		repo:    repo,
		blobs:   blobs,
		library: library,
		hub:     hub,
		cfg:     cfg,
	}
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("writing response failed", logger.ErrorField(err))
	}
}

// writeError sends a JSON error body. details is optional and must never
// contain resolved filesystem paths.
func writeError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
