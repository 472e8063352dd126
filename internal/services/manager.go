package services

import (
	"context"
	"errors"
	"sync"

	"anomalydash/internal/config"
	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/media"
	"anomalydash/internal/metrics"
	"anomalydash/internal/model"
	"anomalydash/internal/services/cache"
	"anomalydash/internal/services/gallery"
	"anomalydash/internal/services/ledger"
	"anomalydash/internal/services/loader"
	"anomalydash/internal/services/stream"
	"anomalydash/internal/services/websocket"
	"anomalydash/internal/upstream"
)

// Manager is the dashboard's application state. Every user intent goes through it,
// and every component event is forwarded to the attached viewers.
type Manager struct {
	gallery *gallery.Controller
	loader  *loader.ImageLoader
	ledger  *ledger.Service
	stream  *stream.Connection
	hub     *websocket.HubService
	logger  *logger.Logger

	thumbnailSize int
	ctx           context.Context // bounds the live connection

	thumbMu sync.Mutex
	thumbs  map[string]string // downscaled payloads by key, reset on every gallery load
}

// NewManager wires the components for one dashboard session. ctx is the process
// lifetime; the live connection never outlives it.
func NewManager(ctx context.Context, cfg *config.Config, client *upstream.Client, hub *websocket.HubService, logger *logger.Logger, m *metrics.Metrics) *Manager {
	resources := cache.NewResourceCache()
	resources.SetObserver(func(key string, state cache.State) {
		logger.Debug("Image %s is now %s", key, state)
	})

	imageLoader := loader.New(resources, client, cfg.OriginTimeout, logger, m)
	return newManager(ctx, cfg,
		gallery.New(client, imageLoader, cfg.ThumbnailConcurrency, logger, m),
		imageLoader,
		ledger.New(client, logger),
		stream.New(stream.OptionsFromConfig(cfg), logger, m),
		hub, logger)
}

func newManager(ctx context.Context, cfg *config.Config, g *gallery.Controller, l *loader.ImageLoader, lg *ledger.Service, s *stream.Connection, hub *websocket.HubService, logger *logger.Logger) *Manager {
	manager := &Manager{
		gallery:       g,
		loader:        l,
		ledger:        lg,
		stream:        s,
		hub:           hub,
		logger:        logger,
		thumbnailSize: cfg.ThumbnailMaxSize,
		ctx:           ctx,
		thumbs:        make(map[string]string),
	}

	g.SetEmitter(hub.BroadcastEvent)
	s.OnStatus(func(state stream.State) {
		hub.BroadcastEvent(dto.Event{Type: dto.EventStreamState, Payload: liveSnapshot(stream.Snapshot{State: state})})
	})
	s.OnFrame(func(frame model.Frame) {
		hub.BroadcastEvent(dto.Event{Type: dto.EventFrame, Payload: frame})
	})
	s.OnDecodeError(func(err error) {
		hub.BroadcastEvent(dto.Event{Type: dto.EventDecodeError, Payload: map[string]string{"error": err.Error()}})
	})

	return manager
}

// LoadGallery refreshes the anomaly listing and returns the resulting view.
func (m *Manager) LoadGallery(ctx context.Context) (dto.GallerySnapshot, error) {
	m.thumbMu.Lock()
	m.thumbs = make(map[string]string)
	m.thumbMu.Unlock()

	_, err := m.gallery.LoadGallery(ctx)
	return m.gallery.Snapshot(), err
}

func (m *Manager) Gallery() dto.GallerySnapshot {
	return m.gallery.Snapshot()
}

func (m *Manager) SelectImage(ctx context.Context, key string) (dto.GallerySnapshot, error) {
	err := m.gallery.Select(ctx, key)
	return m.gallery.Snapshot(), err
}

// ImagePayload returns the cached image for key, downscaled when thumb is set.
// Only keys of the current gallery are served. A thumbnail that cannot be produced
// falls back to the full image.
func (m *Manager) ImagePayload(ctx context.Context, key string, thumb bool) (string, error) {
	if !m.gallery.Contains(key) {
		return "", gallery.ErrUnknownKey
	}
	if thumb {
		m.thumbMu.Lock()
		small, ok := m.thumbs[key]
		m.thumbMu.Unlock()
		if ok {
			return small, nil
		}
	}

	payload, err := m.loader.Load(ctx, key)
	if err != nil || !thumb {
		return payload, err
	}

	small, err := media.Thumbnail(payload, m.thumbnailSize)
	if err != nil {
		m.logger.Warning("Serving full image for %s, thumbnail failed: %v", key, err)
		return payload, nil
	}
	m.thumbMu.Lock()
	m.thumbs[key] = small
	m.thumbMu.Unlock()
	return small, nil
}

func (m *Manager) History(ctx context.Context) (dto.History, error) {
	return m.ledger.History(ctx)
}

func (m *Manager) Stats(ctx context.Context) dto.Stats {
	return m.ledger.Stats(ctx, m.gallery.Snapshot().TotalCount)
}

// OpenLiveView starts the live connection. Opening an already open view is a no-op.
func (m *Manager) OpenLiveView() (dto.LiveSnapshot, error) {
	err := m.stream.Open(m.ctx)
	if errors.Is(err, stream.ErrAlreadyOpen) {
		err = nil
	}
	return m.LiveStatus(), err
}

func (m *Manager) CloseLiveView() dto.LiveSnapshot {
	if err := m.stream.Close(); err != nil {
		m.logger.Error("Error closing live stream: %v", err)
	}
	return m.LiveStatus()
}

func (m *Manager) LiveStatus() dto.LiveSnapshot {
	return liveSnapshot(m.stream.Snapshot())
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

// Stop closes the live connection and waits for pending image loads.
func (m *Manager) Stop() {
	m.CloseLiveView()
	m.gallery.Wait()
	m.logger.Info("🛑 Dashboard components stopped")
}

func liveSnapshot(s stream.Snapshot) dto.LiveSnapshot {
	out := dto.LiveSnapshot{
		Status:      s.State.Status.String(),
		Reason:      s.State.Reason,
		Attempt:     s.State.Attempt,
		LatestFrame: s.LatestFrame,
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return out
}
