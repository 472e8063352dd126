package model

import "time"

// Frame is the most recent decoded live video payload.
type Frame struct {
	ImageData    string    `json:"image"` // data URI
	IsAnomaly    bool      `json:"is_anomaly"`
	AnomalyScore *float64  `json:"anomaly_score,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}
