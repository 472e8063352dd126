package gallery

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/metrics"
	"anomalydash/internal/model"
)

// Lister returns the ordered anomaly metadata from the origin.
type Lister interface {
	ListImages(ctx context.Context) ([]model.ImageMetadata, error)
}

// Loader resolves one image key to its payload.
type Loader interface {
	Load(ctx context.Context, key string) (string, error)
}

// Result summarises a successful LoadGallery.
type Result struct {
	TotalCount             int
	BlockchainMatchedCount int
	Selected               *model.ImageMetadata
}

type mainImage struct {
	key     string
	status  string
	payload string
	err     error
}

// Controller owns the gallery listing and the current selection. Thumbnail loads
// run concurrently up to a fixed limit; the main image load for the selection is
// never queued behind them.
type Controller struct {
	lister  Lister
	loader  Loader
	sem     *semaphore.Weighted
	logger  *logger.Logger
	metrics *metrics.Metrics

	emitMu sync.RWMutex
	emit   func(dto.Event)

	mu         sync.Mutex
	phase      Phase
	images     []model.ImageMetadata
	index      map[string]int
	selected   int
	selection  uint64 // bumped on every selection change
	listing    uint64 // bumped on every successful listing
	main       mainImage
	thumbnails map[string]dto.KeyStatus
	lastErr    error

	wg sync.WaitGroup
}

// New creates a controller. concurrency bounds parallel thumbnail loads.
func New(lister Lister, loader Loader, concurrency int, logger *logger.Logger, m *metrics.Metrics) *Controller {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Controller{
		lister:     lister,
		loader:     loader,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		logger:     logger,
		metrics:    m,
		selected:   -1,
		main:       mainImage{status: StatusNone},
		thumbnails: make(map[string]dto.KeyStatus),
	}
}

// SetEmitter registers the callback that receives thumbnail, main image and
// gallery events.
func (c *Controller) SetEmitter(emit func(dto.Event)) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.emit = emit
}

func (c *Controller) publish(eventType string, payload interface{}) {
	c.emitMu.RLock()
	emit := c.emit
	c.emitMu.RUnlock()
	if emit != nil {
		emit(dto.Event{Type: eventType, Payload: payload})
	}
}

// LoadGallery fetches the listing, selects the first entry and starts one thumbnail
// load per entry plus the full-resolution load for the selection. On failure the
// previous listing and selection are cleared and a *MetadataLoadError is returned.
func (c *Controller) LoadGallery(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.phase == LoadingMetadata {
		c.mu.Unlock()
		return Result{}, ErrLoadInProgress
	}
	c.phase = LoadingMetadata
	c.mu.Unlock()

	images, err := c.lister.ListImages(ctx)
	if err != nil {
		loadErr := &MetadataLoadError{Cause: err}
		c.logger.Error("Error loading anomaly images: %v", err)
		c.metrics.GalleryLoad("error")

		c.mu.Lock()
		c.phase = Failed
		c.images = nil
		c.index = nil
		c.selected = -1
		c.selection++
		c.listing++
		c.main = mainImage{status: StatusNone}
		c.thumbnails = make(map[string]dto.KeyStatus)
		c.lastErr = loadErr
		c.mu.Unlock()

		c.publish(dto.EventGallery, c.Snapshot())
		return Result{}, loadErr
	}

	index := make(map[string]int, len(images))
	thumbnails := make(map[string]dto.KeyStatus, len(images))
	for i, img := range images {
		index[img.Filename] = i
		thumbnails[img.Filename] = dto.KeyStatus{Key: img.Filename, Status: StatusLoading}
	}

	c.mu.Lock()
	c.phase = Populated
	c.images = images
	c.index = index
	c.thumbnails = thumbnails
	c.lastErr = nil
	c.listing++
	listing := c.listing
	c.selected = -1
	c.main = mainImage{status: StatusNone}
	if len(images) > 0 {
		c.selected = 0
	}
	c.selection++
	selection := c.selection

	result := Result{
		TotalCount:             len(images),
		BlockchainMatchedCount: model.CountMatched(images),
	}
	if c.selected >= 0 {
		selected := images[0]
		result.Selected = &selected
		c.main = mainImage{key: selected.Filename, status: StatusLoading}
	}
	c.mu.Unlock()

	c.metrics.GalleryLoad("success")
	c.logger.Info("Loaded %d anomaly images (%d blockchain matched)", result.TotalCount, result.BlockchainMatchedCount)
	c.publish(dto.EventGallery, c.Snapshot())

	bg := context.WithoutCancel(ctx)
	for _, img := range images {
		c.wg.Add(1)
		go c.loadThumbnail(bg, listing, img.Filename)
	}
	if result.Selected != nil {
		c.wg.Add(1)
		go c.loadMain(bg, selection, result.Selected.Filename)
	}
	return result, nil
}

// Select moves the selection to key and starts its full-resolution load. Sibling
// entries are left untouched.
func (c *Controller) Select(ctx context.Context, key string) error {
	c.mu.Lock()
	i, ok := c.index[key]
	if !ok || c.phase != Populated {
		c.mu.Unlock()
		return ErrUnknownKey
	}
	c.selected = i
	c.selection++
	selection := c.selection
	c.main = mainImage{key: key, status: StatusLoading}
	c.mu.Unlock()

	c.publish(dto.EventMainImage, dto.MainImage{Key: key, Status: StatusLoading})

	c.wg.Add(1)
	go c.loadMain(context.WithoutCancel(ctx), selection, key)
	return nil
}

func (c *Controller) loadThumbnail(ctx context.Context, listing uint64, key string) {
	defer c.wg.Done()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return
	}
	_, err := c.loader.Load(ctx, key)
	c.sem.Release(1)

	status := dto.KeyStatus{Key: key, Status: StatusLoaded}
	if err != nil {
		status.Status = StatusFailed
		status.Error = err.Error()
	}

	c.mu.Lock()
	if listing != c.listing {
		c.mu.Unlock()
		return
	}
	c.thumbnails[key] = status
	c.mu.Unlock()

	c.publish(dto.EventThumbnail, status)
}

func (c *Controller) loadMain(ctx context.Context, selection uint64, key string) {
	defer c.wg.Done()

	payload, err := c.loader.Load(ctx, key)

	c.mu.Lock()
	if selection != c.selection {
		c.mu.Unlock()
		c.logger.Debug("Dropping stale main image %s", key)
		return
	}
	c.main = mainImage{key: key, status: StatusLoaded, payload: payload}
	if err != nil {
		c.main = mainImage{key: key, status: StatusFailed, err: err}
	}
	view := c.main.view()
	c.mu.Unlock()

	c.publish(dto.EventMainImage, view)
}

// Wait blocks until every load started so far has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Phase returns the current listing phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Contains reports whether key is listed in the current gallery.
func (c *Controller) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[key]
	return ok
}

// Selected returns the selected entry, if any.
func (c *Controller) Selected() (model.ImageMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected < 0 {
		return model.ImageMetadata{}, false
	}
	return c.images[c.selected], true
}

// Snapshot returns a read-only view for rendering.
func (c *Controller) Snapshot() dto.GallerySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := dto.GallerySnapshot{
		Phase:                  c.phase.String(),
		TotalCount:             len(c.images),
		BlockchainMatchedCount: model.CountMatched(c.images),
		Images:                 append([]model.ImageMetadata(nil), c.images...),
		MainImage:              c.main.view(),
		PerKeyLoadStatus:       make(map[string]string, len(c.thumbnails)),
	}
	if c.selected >= 0 {
		selected := c.images[c.selected]
		snap.SelectedMetadata = &selected
		snap.Caption = selected.Describe()
	}
	for key, status := range c.thumbnails {
		snap.PerKeyLoadStatus[key] = status.Status
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

func (m mainImage) view() dto.MainImage {
	out := dto.MainImage{Key: m.key, Status: m.status, Payload: m.payload}
	if m.err != nil {
		out.Error = m.err.Error()
	}
	return out
}
