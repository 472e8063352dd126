package simulator

import (
	"fmt"
	"sync"
	"time"

	"anomalydash/internal/dto"
	"anomalydash/internal/model"
	"anomalydash/internal/repository"
)

const timestampLayout = "2006-01-02 15:04:05"

// Chain is the mock ledger. Reads are cached for ttl; recording a transaction
// drops the cache.
type Chain struct {
	repo repository.TxLogRepository
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	cached    *dto.BlockchainResponse
	fetchedAt time.Time
}

func NewChain(repo repository.TxLogRepository, ttl time.Duration) *Chain {
	return &Chain{repo: repo, ttl: ttl, now: time.Now}
}

// Data returns the blockchain-data response, from cache when it is fresh.
func (c *Chain) Data() (dto.BlockchainResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		resp := *c.cached
		resp.Cached = true
		return resp, nil
	}

	logs, err := c.repo.GetAll()
	if err != nil {
		return dto.BlockchainResponse{}, fmt.Errorf("failed to read transaction logs: %w", err)
	}

	resp := dto.BlockchainResponse{Success: true, AnomalyCount: len(logs), TxLogs: logs}
	c.cached = &resp
	c.fetchedAt = c.now()
	return resp, nil
}

// Record appends an anomaly transaction for frame and returns the stored log.
func (c *Chain) Record(folder string, frame int, score float64) (model.TransactionLog, error) {
	log := model.TransactionLog{
		Timestamp: c.now().Format(timestampLayout),
		Folder:    folder,
		Frame:     frame,
		Error:     FormatScore(score),
	}
	if _, err := c.repo.Append(&log); err != nil {
		return model.TransactionLog{}, err
	}

	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
	return log, nil
}

// FormatScore renders an anomaly score the way transaction logs carry it.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}
