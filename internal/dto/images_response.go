package dto

import "anomalydash/internal/model"

// ImagesResponse is the body of GET /api/anomaly-images.
type ImagesResponse struct {
	Success    bool                  `json:"success"`
	Images     []model.ImageMetadata `json:"images"`
	TotalCount int                   `json:"total_count"`
	Error      string                `json:"error,omitempty"`
}
