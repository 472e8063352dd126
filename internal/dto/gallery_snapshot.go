package dto

import "anomalydash/internal/model"

// GallerySnapshot is what the shell renders for the anomaly gallery.
type GallerySnapshot struct {
	Phase                  string                `json:"phase"`
	TotalCount             int                   `json:"totalCount"`
	BlockchainMatchedCount int                   `json:"blockchainMatchedCount"`
	Images                 []model.ImageMetadata `json:"images"`
	SelectedMetadata       *model.ImageMetadata  `json:"selectedMetadata,omitempty"`
	Caption                string                `json:"caption,omitempty"`
	MainImage              MainImage             `json:"mainImage"`
	PerKeyLoadStatus       map[string]string     `json:"perKeyLoadStatus"`
	Error                  string                `json:"error,omitempty"`
}

// MainImage is the full-resolution view for the current selection.
type MainImage struct {
	Key     string `json:"key,omitempty"`
	Status  string `json:"status"`
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}
