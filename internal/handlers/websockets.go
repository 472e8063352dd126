package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"anomalydash/internal/logger"
	hub "anomalydash/internal/services/websocket"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler attaches a browser viewer to the event stream.
func ViewWebsocketHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return HubWebsocketHandler(dashboard.GetWebsocketService(), logger)
}

// HubWebsocketHandler upgrades the request and serves it from h until it disconnects.
func HubWebsocketHandler(h *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		h.Serve(connection)
	}
}
