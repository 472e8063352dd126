package handlers

import (
	"context"
	"errors"
	"net/http"

	"anomalydash/internal/logger"
	"anomalydash/internal/services/gallery"
	"anomalydash/internal/services/loader"
)

// imageBody is the response of the image endpoint.
type imageBody struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
	Size    string `json:"size"`
	Image   string `json:"image"`
}

// LoadGalleryHandler refreshes the listing. A failed listing answers 502 with the
// "no data" snapshot so the shell can render the error state.
func LoadGalleryHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := dashboard.LoadGallery(r.Context())
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, snap)
		case errors.Is(err, gallery.ErrLoadInProgress):
			writeError(w, logger, http.StatusConflict, err)
		default:
			writeJSON(w, logger, http.StatusBadGateway, snap)
		}
	}
}

func GalleryHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dashboard.Gallery())
	}
}

func SelectImageHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" {
			writeError(w, logger, http.StatusBadRequest, errors.New("missing key"))
			return
		}

		snap, err := dashboard.SelectImage(r.Context(), key)
		if errors.Is(err, gallery.ErrUnknownKey) {
			writeError(w, logger, http.StatusNotFound, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, snap)
	}
}

// ImageHandler returns one image as a data URI. size=thumb serves the downscaled copy.
func ImageHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key := q.Get("key")
		if key == "" {
			writeError(w, logger, http.StatusBadRequest, errors.New("missing key"))
			return
		}
		size := q.Get("size")
		if size == "" {
			size = "full"
		}
		if size != "full" && size != "thumb" {
			writeError(w, logger, http.StatusBadRequest, errors.New("size must be thumb or full"))
			return
		}

		payload, err := dashboard.ImagePayload(r.Context(), key, size == "thumb")
		var loadErr *loader.ImageLoadError
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, imageBody{Success: true, Key: key, Size: size, Image: payload})
		case errors.Is(err, gallery.ErrUnknownKey):
			writeError(w, logger, http.StatusNotFound, err)
		case errors.As(err, &loadErr):
			writeError(w, logger, http.StatusBadGateway, err)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeError(w, logger, http.StatusGatewayTimeout, err)
		default:
			writeError(w, logger, http.StatusInternalServerError, err)
		}
	}
}
