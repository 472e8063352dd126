package dto

import "anomalydash/internal/model"

// LiveSnapshot is what the shell renders for the live feed tab.
type LiveSnapshot struct {
	Status      string       `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	Attempt     int          `json:"attempt,omitempty"`
	LatestFrame *model.Frame `json:"latestFrame,omitempty"`
	LastError   string       `json:"lastError,omitempty"`
}
