package handlers

import (
	"net/http"

	"anomalydash/internal/logger"
)

func OpenLiveHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := dashboard.OpenLiveView()
		if err != nil {
			logger.Error("Error opening live view: %v", err)
			writeError(w, logger, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, logger, http.StatusAccepted, snap)
	}
}

func CloseLiveHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dashboard.CloseLiveView())
	}
}

func LiveStatusHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dashboard.LiveStatus())
	}
}
