package dto

// ImageResponse is the body of GET /api/image/{filename}.
type ImageResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image,omitempty"` // data URI
	Cached  bool   `json:"cached,omitempty"`
	Error   string `json:"error,omitempty"`
}
