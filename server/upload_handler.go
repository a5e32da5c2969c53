package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"vinylfm/logger"
	"vinylfm/storage"
)

// maxUploadSize caps a single upload request.
const maxUploadSize = 100 << 20 // 100MB

// uploadSlots bounds concurrent uploads; saturated means 503, not queueing.
var uploadSlots = make(chan struct{}, 5)

// UploadHandler accepts one asset as a multipart form (vinylId, fileType,
// optional trackIndex, file) and stores it through the blob store. The
// response carries the opaque reference path the file server resolves.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	logger.Info("handling upload",
		logger.String("remoteAddr", r.RemoteAddr),
		logger.Int64("contentLength", r.ContentLength),
	)

	if r.ContentLength > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d MB", maxUploadSize>>20), "")
		return
	}

	select {
	case uploadSlots <- struct{}{}:
		defer func() { <-uploadSlots }()
	default:
		logger.Warn("upload slots saturated, rejecting request")
		writeError(w, http.StatusServiceUnavailable, "Server is busy, please try again later", "")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("parsing upload form failed", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Failed to parse upload form", "")
		return
	}

	vinylID := r.FormValue("vinylId")
	if vinylID == "" {
		writeError(w, http.StatusBadRequest, "Missing 'vinylId' in form", "")
		return
	}

	kind := storage.AssetKind(r.FormValue("fileType"))
	if kind != storage.KindCover && kind != storage.KindAudio {
		writeError(w, http.StatusBadRequest, "Invalid 'fileType', expected 'cover' or 'audio'", "")
		return
	}

	trackIndex := 0
	if v := r.FormValue("trackIndex"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'trackIndex' in form", "")
			return
		}
		trackIndex = n
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'file' in form", "")
		return
	}
	defer file.Close()

	refPath, err := h.blobs.Store(r.Context(), vinylID, kind, trackIndex, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error(), "")
		case errors.Is(err, storage.ErrPathTraversal):
			writeError(w, http.StatusForbidden, "Invalid path", "")
		default:
			logger.Error("storing upload failed",
				logger.String("vinylId", vinylID),
				logger.ErrorField(err),
			)
			writeError(w, http.StatusInternalServerError, "Failed to upload file", "")
		}
		return
	}

	logger.Info("upload stored",
		logger.String("vinylId", vinylID),
		logger.String("fileType", string(kind)),
		logger.String("path", refPath),
		logger.Int64("bytes", header.Size),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "path": refPath})
}
