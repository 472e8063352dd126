package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey is returned by Select for a key not in the current listing.
	ErrUnknownKey = errors.New("gallery: key not in current listing")
	// ErrLoadInProgress is returned when LoadGallery is called while a listing is pending.
	ErrLoadInProgress = errors.New("gallery: metadata load already in progress")
)

// MetadataLoadError aborts gallery population. No partial gallery is kept.
type MetadataLoadError struct {
	Cause error
}

func (e *MetadataLoadError) Error() string {
	return fmt.Sprintf("failed to load anomaly images: %v", e.Cause)
}

func (e *MetadataLoadError) Unwrap() error {
	return e.Cause
}
