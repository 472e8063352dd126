package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anomalydash/internal/config"
	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/media"
	"anomalydash/internal/metrics"
	"anomalydash/internal/model"
	"anomalydash/internal/services/gallery"
	"anomalydash/internal/services/websocket"
	"anomalydash/internal/upstream"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return media.BuildDataURI(media.MIMETypePNG, buf.Bytes())
}

type fakeOrigin struct {
	image      string
	imageCalls int32
}

func (o *fakeOrigin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/anomaly-images":
		json.NewEncoder(w).Encode(dto.ImagesResponse{
			Success: true,
			Images: []model.ImageMetadata{
				{Filename: "a.png", Size: 100, BlockchainMatch: true, TxData: &model.TxData{Folder: "video_1", Frame: 50, Error: "0.7"}},
				{Filename: "b.png", Size: 200},
			},
			TotalCount: 2,
		})
	case strings.HasPrefix(r.URL.Path, "/api/image/"):
		atomic.AddInt32(&o.imageCalls, 1)
		json.NewEncoder(w).Encode(dto.ImageResponse{Success: true, Image: o.image})
	case r.URL.Path == "/api/blockchain-data":
		json.NewEncoder(w).Encode(dto.BlockchainResponse{
			Success:      true,
			AnomalyCount: 2,
			TxLogs:       []model.TransactionLog{{Index: 0, Folder: "video_1"}, {Index: 1, Folder: "video_1"}},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestManager(t *testing.T, origin *fakeOrigin) *Manager {
	t.Helper()
	srv := httptest.NewServer(origin)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		OriginBaseURL:        srv.URL,
		OriginTimeout:        2 * time.Second,
		ThumbnailConcurrency: 2,
		ThumbnailMaxSize:     20,
		StreamURL:            "ws" + strings.TrimPrefix(srv.URL, "http"),
		StreamNamespace:      "/ws/video_feed",
		StreamTransport:      "websocket",
	}
	log := logger.Discard()
	m := metrics.New()
	hub := websocket.NewHubService(log, m)
	go hub.Run(ctx)

	manager := NewManager(ctx, cfg, upstream.NewClient(cfg), hub, log, m)
	t.Cleanup(manager.Stop)
	return manager
}

func TestManagerGalleryFlow(t *testing.T) {
	origin := &fakeOrigin{image: pngDataURI(t, 80, 40)}
	manager := newTestManager(t, origin)

	snap, err := manager.LoadGallery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalCount)
	assert.Equal(t, 1, snap.BlockchainMatchedCount)
	assert.Equal(t, "a.png", snap.SelectedMetadata.Filename)

	manager.gallery.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&origin.imageCalls), "selection shares the thumbnail retrieval")

	full, err := manager.ImagePayload(context.Background(), "a.png", false)
	require.NoError(t, err)
	assert.Equal(t, origin.image, full)

	thumb, err := manager.ImagePayload(context.Background(), "a.png", true)
	require.NoError(t, err)
	_, data, err := media.ParseDataURI(thumb)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
	assert.Equal(t, int32(2), atomic.LoadInt32(&origin.imageCalls), "cached payloads are not fetched again")

	again, err := manager.ImagePayload(context.Background(), "a.png", true)
	require.NoError(t, err)
	assert.Equal(t, thumb, again)
	manager.thumbMu.Lock()
	assert.Len(t, manager.thumbs, 1, "thumbnails are downscaled once per key")
	manager.thumbMu.Unlock()

	_, err = manager.ImagePayload(context.Background(), "zzz.png", false)
	assert.ErrorIs(t, err, gallery.ErrUnknownKey)
	_, err = manager.ImagePayload(context.Background(), "zzz.png", true)
	assert.ErrorIs(t, err, gallery.ErrUnknownKey)
	assert.Equal(t, int32(2), atomic.LoadInt32(&origin.imageCalls), "unknown keys never reach the origin")

	snap, err = manager.SelectImage(context.Background(), "b.png")
	require.NoError(t, err)
	assert.Equal(t, "b.png", snap.SelectedMetadata.Filename)
}

func TestManagerLedger(t *testing.T) {
	manager := newTestManager(t, &fakeOrigin{image: pngDataURI(t, 4, 4)})

	_, err := manager.LoadGallery(context.Background())
	require.NoError(t, err)

	history, err := manager.History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, history.Logs[0].Index)

	stats := manager.Stats(context.Background())
	assert.Equal(t, dto.Stats{LocalCount: 2, BlockchainCount: 2, ChainStatus: "connected"}, stats)
}

func TestManagerLiveViewLifecycle(t *testing.T) {
	manager := newTestManager(t, &fakeOrigin{})
	assert.Equal(t, "disconnected", manager.LiveStatus().Status)

	// The fake origin has no websocket endpoint, so the view fails after retries run out.
	snap, err := manager.OpenLiveView()
	require.NoError(t, err)
	assert.Contains(t, []string{"connecting", "failed"}, snap.Status)

	_, err = manager.OpenLiveView()
	assert.NoError(t, err, "opening twice is a no-op")

	require.Eventually(t, func() bool { return manager.LiveStatus().Status == "failed" }, 3*time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, manager.LiveStatus().LastError)

	assert.Equal(t, "disconnected", manager.CloseLiveView().Status)
}
