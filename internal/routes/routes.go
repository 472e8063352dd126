package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"anomalydash/internal/handlers"
	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/middleware"
	"anomalydash/internal/services/websocket"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// SetupRoutes registers the dashboard API, static files, logs, metrics and auth,
// and wraps the mux with the authentication middleware.
func SetupRoutes(dashboard handlers.Dashboard, session *middleware.Session, logger *logger.Logger, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", m.Handler())

	// Gallery
	mux.HandleFunc("POST /api/gallery/load", handlers.LoadGalleryHandler(dashboard, logger))
	mux.HandleFunc("GET /api/gallery", handlers.GalleryHandler(dashboard, logger))
	mux.HandleFunc("POST /api/gallery/select", handlers.SelectImageHandler(dashboard, logger))
	mux.HandleFunc("GET /api/gallery/image", handlers.ImageHandler(dashboard, logger))

	// Ledger
	mux.HandleFunc("GET /api/ledger/history", handlers.HistoryHandler(dashboard, logger))
	mux.HandleFunc("GET /api/ledger/stats", handlers.StatsHandler(dashboard, logger))

	// Live feed
	mux.HandleFunc("POST /api/live/open", handlers.OpenLiveHandler(dashboard, logger))
	mux.HandleFunc("POST /api/live/close", handlers.CloseLiveHandler(dashboard, logger))
	mux.HandleFunc("GET /api/live/status", handlers.LiveStatusHandler(dashboard, logger))
	mux.HandleFunc("GET /api/view", handlers.ViewWebsocketHandler(dashboard, logger))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handlers.ShowLogsHandler(logger))
	mux.HandleFunc("POST /logs/{level}/clear", handlers.ClearLogsHandler(logger))

	// Auth endpoints
	mux.HandleFunc("POST /auth/login", handlers.LoginHandler(session, logger))
	mux.HandleFunc("GET /auth/logout", handlers.LogoutHandler)
	mux.HandleFunc("POST /auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("GET /", dynamicHTMLHandler)

	return middleware.AuthMiddleware(session, mux)
}

// SetupOriginRoutes registers the development origin: the three device endpoints
// and the live frame feed.
func SetupOriginRoutes(origin handlers.Origin, feed *websocket.HubService, logger *logger.Logger, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("GET /api/anomaly-images", handlers.AnomalyImagesHandler(origin, logger))
	mux.HandleFunc("GET /api/image/{filename}", handlers.OriginImageHandler(origin, logger))
	mux.HandleFunc("GET /api/blockchain-data", handlers.BlockchainDataHandler(origin, logger))
	mux.HandleFunc("GET /ws/video_feed", handlers.HubWebsocketHandler(feed, logger))

	return mux
}
