// Package ledger reads the anomaly transaction log the origin mirrors from the chain.
package ledger

import (
	"context"
	"errors"

	"anomalydash/internal/dto"
	"anomalydash/internal/logger"
	"anomalydash/internal/model"
	"anomalydash/internal/upstream"
)

// Chain status values reported by Stats.
const (
	StatusConnected = "connected"
	StatusFailed    = "failed"
	StatusError     = "error"
)

// UnknownCount is reported when the chain count could not be read.
const UnknownCount = -1

const defaultUnavailable = "Unable to connect to the blockchain."

// Source returns the raw transaction log.
type Source interface {
	BlockchainData(ctx context.Context) (*dto.BlockchainResponse, error)
}

type Service struct {
	source Source
	logger *logger.Logger
}

func New(source Source, logger *logger.Logger) *Service {
	return &Service{source: source, logger: logger}
}

// History returns the transaction logs, most recent first. A server-reported failure
// keeps the origin's message.
func (s *Service) History(ctx context.Context) (dto.History, error) {
	resp, err := s.source.BlockchainData(ctx)
	if err != nil {
		var serverErr *upstream.ServerError
		if errors.As(err, &serverErr) && serverErr.Message == "" {
			err = &upstream.ServerError{Message: defaultUnavailable}
		}
		s.logger.Error("Error loading transaction history: %v", err)
		return dto.History{}, err
	}

	logs := make([]model.TransactionLog, len(resp.TxLogs))
	for i, tx := range resp.TxLogs {
		logs[len(logs)-1-i] = tx
	}
	return dto.History{AnomalyCount: resp.AnomalyCount, Logs: logs}, nil
}

// Stats combines the local gallery count with the chain count. It never fails;
// the chain side degrades to UnknownCount with the matching status.
func (s *Service) Stats(ctx context.Context, localCount int) dto.Stats {
	stats := dto.Stats{LocalCount: localCount, BlockchainCount: UnknownCount}

	resp, err := s.source.BlockchainData(ctx)
	switch {
	case err == nil:
		stats.BlockchainCount = resp.AnomalyCount
		stats.ChainStatus = StatusConnected
	case errors.Is(err, upstream.ErrServerReported):
		stats.ChainStatus = StatusFailed
		stats.Error = err.Error()
		s.logger.Warning("Blockchain reported failure: %v", err)
	default:
		stats.ChainStatus = StatusError
		stats.Error = err.Error()
		s.logger.Error("Error loading statistics: %v", err)
	}
	return stats
}
