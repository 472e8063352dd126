package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"anomalydash/internal/logger"
)

// Image is one annotated anomaly frame waiting to be written.
type Image struct {
	Filename string
	Data     []byte
}

// BufferService collects anomaly frames in memory and writes them to imagesDir in
// batches. Frames offered while the buffer is full are dropped.
type BufferService struct {
	imagesDir   string
	images      []Image
	bufferLimit int
	mu          sync.Mutex
	logger      *logger.Logger
}

func NewBufferService(imagesDir string, bufferLimit int, logger *logger.Logger) *BufferService {
	return &BufferService{
		imagesDir:   imagesDir,
		bufferLimit: bufferLimit,
		images:      make([]Image, 0, bufferLimit),
		logger:      logger,
	}
}

// Run flushes every flushInterval until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context, flushInterval time.Duration) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushImages()
			return
		case <-ticker.C:
			s.FlushImages()
		}
	}
}

// AddImage queues data under filename and reports whether it was accepted.
func (s *BufferService) AddImage(filename string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) >= s.bufferLimit {
		s.logger.Warning("Frame buffer full (%d), dropping %s", s.bufferLimit, filename)
		return false
	}

	s.images = append(s.images, Image{Filename: filepath.Base(filename), Data: data})
	s.logger.Debug("Buffer size: %d/%d", len(s.images), s.bufferLimit)
	return true
}

func (s *BufferService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// FlushImages writes every buffered frame and returns how many were saved.
func (s *BufferService) FlushImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	saved := 0
	for _, image := range s.images {
		fullpath := filepath.Join(s.imagesDir, image.Filename)
		if err := writeFileAtomic(fullpath, image.Data); err != nil {
			s.logger.Error("Error saving image %s: %v", image.Filename, err)
			continue
		}
		saved++
	}

	s.logger.Info("Flushed %d images to disk", saved)
	s.images = s.images[:0]
	return saved
}

// writeFileAtomic keeps half-written frames out of the catalog listing.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
