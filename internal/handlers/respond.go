package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/services/websocket"
)

// Dashboard is the application state the handlers drive.
type Dashboard interface {
	LoadGallery(ctx context.Context) (dto.GallerySnapshot, error)
	Gallery() dto.GallerySnapshot
	SelectImage(ctx context.Context, key string) (dto.GallerySnapshot, error)
	ImagePayload(ctx context.Context, key string, thumb bool) (string, error)
	History(ctx context.Context) (dto.History, error)
	Stats(ctx context.Context) dto.Stats
	OpenLiveView() (dto.LiveSnapshot, error)
	CloseLiveView() dto.LiveSnapshot
	LiveStatus() dto.LiveSnapshot
	GetWebsocketService() *websocket.HubService
}

// errorBody is the JSON body of every failed API call.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, status int, err error) {
	writeJSON(w, logger, status, errorBody{Success: false, Error: err.Error()})
}
