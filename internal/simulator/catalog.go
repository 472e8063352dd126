// Package simulator is a local stand-in for the remote anomaly-detection device:
// an image catalog, a mock chain backed by SQLite, and a frame replayer.
package simulator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"anomalydash/internal/logger"
	"anomalydash/internal/media"
	"anomalydash/internal/model"
)

var ErrImageNotFound = errors.New("image not found")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// unmatched is the tx_data reported for files with no chain record.
var unmatched = model.TxData{Folder: "Local File", Frame: 0, Error: "N/A", Index: -1}

// Catalog lists the annotated anomaly images in one directory and serves them as
// data URIs. Encoded images are kept in memory once read.
type Catalog struct {
	dir    string
	mu     sync.RWMutex
	images map[string]string
	logger *logger.Logger
}

func NewCatalog(dir string, logger *logger.Logger) *Catalog {
	return &Catalog{dir: dir, images: make(map[string]string), logger: logger}
}

func (c *Catalog) Dir() string {
	return c.dir
}

// MatchFilename returns the image name a transaction log is expected to have.
// Only logs from video_N folders have one.
func MatchFilename(tx model.TransactionLog) (string, bool) {
	num, ok := strings.CutPrefix(tx.Folder, "video_")
	if !ok {
		return "", false
	}
	return fmt.Sprintf("video_Test%s_frame%05d_error%s.jpg", num, tx.Frame, tx.Error), true
}

// List scans the directory and matches every image against logs. A missing
// directory is an empty catalog.
func (c *Catalog) List(logs []model.TransactionLog) ([]model.ImageMetadata, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []model.ImageMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.dir, err)
	}

	byName := make(map[string]model.TransactionLog, len(logs))
	for _, tx := range logs {
		if name, ok := MatchFilename(tx); ok {
			if _, seen := byName[name]; !seen {
				byName[name] = tx
			}
		}
	}

	images := make([]model.ImageMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			c.logger.Warning("Skipping %s: %v", entry.Name(), err)
			continue
		}

		meta := model.ImageMetadata{Filename: entry.Name(), Size: info.Size()}
		if tx, ok := byName[entry.Name()]; ok {
			meta.BlockchainMatch = true
			meta.TxData = &model.TxData{Folder: tx.Folder, Frame: tx.Frame, Error: tx.Error, Index: tx.Index}
		} else {
			tx := unmatched
			meta.TxData = &tx
		}
		images = append(images, meta)
	}
	return images, nil
}

// Image returns filename as a data URI and whether it came from memory.
func (c *Catalog) Image(filename string) (string, bool, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", false, ErrImageNotFound
	}

	c.mu.RLock()
	payload, ok := c.images[filename]
	c.mu.RUnlock()
	if ok {
		c.logger.Debug("Serving %s from cache", filename)
		return payload, true, nil
	}

	data, err := os.ReadFile(filepath.Join(c.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, ErrImageNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	payload = media.BuildDataURI(media.MIMETypeForExt(filepath.Ext(filename)), data)
	c.mu.Lock()
	c.images[filename] = payload
	c.mu.Unlock()
	return payload, false, nil
}
