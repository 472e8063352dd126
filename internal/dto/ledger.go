package dto

import "anomalydash/internal/model"

// History is the transaction list, most recent first.
type History struct {
	AnomalyCount int                    `json:"anomalyCount"`
	Logs         []model.TransactionLog `json:"logs"`
}

// Stats backs the counters tab.
type Stats struct {
	LocalCount      int    `json:"localCount"`
	BlockchainCount int    `json:"blockchainCount"` // -1 when unknown
	ChainStatus     string `json:"chainStatus"`
	Error           string `json:"error,omitempty"`
}
