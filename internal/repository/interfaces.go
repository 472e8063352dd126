package repository

import (
	"anomalydash/internal/model"
)

// TxLogRepository stores the mock chain's transaction logs.
type TxLogRepository interface {
	// Create operations. Append assigns the next index; InsertBatch keeps the given ones.
	Append(log *model.TransactionLog) (int, error)
	InsertBatch(logs []model.TransactionLog) error

	// Read operations, oldest first
	GetAll() ([]model.TransactionLog, error)
	Count() (int, error)

	// Delete operations
	DeleteAll() error
}
