package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"anomalydash/internal/config"
	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/repository/sqlite"
	"anomalydash/internal/routes"
	"anomalydash/internal/services/storage"
	"anomalydash/internal/services/websocket"
	"anomalydash/internal/simulator"
	"anomalydash/internal/simulator/video"
)

// OriginApp is the development origin process.
type OriginApp struct {
	config        *config.Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	db            *sqlite.DB
	feed          *websocket.HubService
	bufferService *storage.BufferService
	origin        *simulator.Origin
	chain         *simulator.Chain
}

func NewOriginApp(cfg *config.Config) (*OriginApp, error) {
	log := logger.NewLogger(cfg)
	m := metrics.New()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	chain := simulator.NewChain(sqlite.NewTxLogRepository(db), cfg.ChainCacheTTL)
	catalog := simulator.NewCatalog(cfg.AnomalyDirectory, log)

	return &OriginApp{
		config:        cfg,
		logger:        log,
		metrics:       m,
		db:            db,
		feed:          websocket.NewHubService(log, m),
		bufferService: storage.NewBufferService(cfg.AnomalyDirectory, cfg.FrameBufferLimit, log),
		origin:        simulator.NewOrigin(catalog, chain),
		chain:         chain,
	}, nil
}

// openSource picks the replay source: the video file when one is configured,
// otherwise the frame directory.
func (a *OriginApp) openSource() (simulator.FrameSource, error) {
	if a.config.ReplayVideoPath != "" {
		return video.Open(a.config.ReplayVideoPath)
	}
	return simulator.NewDirectorySource(a.config.ReplayDirectory)
}

// Run serves the origin endpoints and replays frames until ctx is done.
func (a *OriginApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		cancel()
		workers.Wait()
		a.db.Close()
	}()

	go a.feed.Run(ctx)
	workers.Add(1)
	go func() {
		defer workers.Done()
		a.bufferService.Run(ctx, a.config.FrameFlushInterval)
	}()

	source, err := a.openSource()
	switch {
	case err == nil:
		replayer := simulator.NewReplayer(source, a.feed, a.chain, a.bufferService, simulator.ReplayOptions{
			Interval:     a.config.ReplayInterval,
			AnomalyEvery: a.config.ReplayAnomalyEvery,
		}, a.logger)
		replayer.SetAnnotator(video.Annotate)
		workers.Add(1)
		go func() {
			defer workers.Done()
			defer source.Close()
			if err := replayer.Run(ctx); err != nil {
				a.logger.Error("Error in video stream: %v", err)
			}
		}()
	case errors.Is(err, simulator.ErrNoFrames), errors.Is(err, os.ErrNotExist):
		a.logger.Warning("Live feed disabled: %v", err)
	default:
		return err
	}

	router := routes.SetupOriginRoutes(a.origin, a.feed, a.logger, a.metrics)

	a.logger.Info("🧪 Development origin")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.OriginPort)
	a.logger.Info("📁 Anomalies: %s", a.config.AnomalyDirectory)
	a.logger.Info("⛓️  Chain store: %s", a.config.DatabasePath)

	return serve(ctx, a.config.OriginPort, router, a.logger)
}
