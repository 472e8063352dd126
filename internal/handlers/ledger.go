package handlers

import (
	"net/http"

	"anomalydash/internal/logger"
)

func HistoryHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := dashboard.History(r.Context())
		if err != nil {
			writeError(w, logger, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, history)
	}
}

// StatsHandler always answers 200; chain problems show up in chainStatus.
func StatsHandler(dashboard Dashboard, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, dashboard.Stats(r.Context()))
	}
}
