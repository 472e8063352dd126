package dto

// Event types pushed to viewers.
const (
	EventThumbnail   = "thumbnail"
	EventMainImage   = "main_image"
	EventGallery     = "gallery"
	EventStreamState = "stream_status"
	EventFrame       = "frame"
	EventDecodeError = "decode_error"
)

// Event is the envelope written to every viewer websocket.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// KeyStatus reports the outcome of a single image load.
type KeyStatus struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
