package dto

import "anomalydash/internal/model"

// BlockchainResponse is the body of GET /api/blockchain-data.
type BlockchainResponse struct {
	Success      bool                   `json:"success"`
	AnomalyCount int                    `json:"anomaly_count"`
	TxLogs       []model.TransactionLog `json:"tx_logs"`
	Cached       bool                   `json:"cached,omitempty"`
	Error        string                 `json:"error,omitempty"`
}
