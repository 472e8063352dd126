package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anomalydash/internal/config"
	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/middleware"
	"anomalydash/internal/routes"
	"anomalydash/internal/services"
	"anomalydash/internal/services/websocket"
	"anomalydash/internal/upstream"
)

const shutdownTimeout = 5 * time.Second

// App is the dashboard process.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
	hubService *websocket.HubService
	client     *upstream.Client
}

func NewApp(cfg *config.Config) *App {
	log := logger.NewLogger(cfg)
	m := metrics.New()

	return &App{
		config:     cfg,
		logger:     log,
		metrics:    m,
		hubService: websocket.NewHubService(log, m),
		client:     upstream.NewClient(cfg),
	}
}

// Run serves the dashboard until ctx is done.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run(ctx)

	manager := services.NewManager(ctx, a.config, a.client, a.hubService, a.logger, a.metrics)
	defer manager.Stop()

	session := middleware.NewSession(a.config.Password)
	router := routes.SetupRoutes(manager, session, a.logger, a.metrics)

	a.logger.Info("🚀 Anomaly Detection Dashboard")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🛰️  Origin: %s", a.config.OriginBaseURL)
	a.logger.Info("📡 Live feed: %s (%s)", a.config.StreamURL, a.config.StreamTransport)
	if !session.Enabled() {
		a.logger.Warning("🔓 No DASHBOARD_PASSWORD set, login is disabled")
	}

	return serve(ctx, a.config.Port, router, a.logger)
}

// serve runs an HTTP server on port and shuts it down gracefully when ctx is done.
func serve(ctx context.Context, port int, handler http.Handler, logger *logger.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
