package simulator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoFrames = errors.New("no frames to replay")

// FrameSource yields JPEG frames forever, looping at the end.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

// DirectorySource replays the JPEG files of a directory in name order.
type DirectorySource struct {
	paths []string
	next  int
}

func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".jpg" && ext != ".jpeg") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	return &DirectorySource{paths: paths}, nil
}

func (s *DirectorySource) Next() ([]byte, error) {
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)
	return os.ReadFile(path)
}

func (s *DirectorySource) Close() error {
	return nil
}
