package sqlite

import (
	"fmt"

	"anomalydash/internal/model"
)

// TxLogRepository implements repository.TxLogRepository for SQLite.
type TxLogRepository struct {
	db *DB
}

func NewTxLogRepository(db *DB) *TxLogRepository {
	return &TxLogRepository{db: db}
}

// Append stores log under the next free index and returns that index.
func (r *TxLogRepository) Append(log *model.TransactionLog) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	var next int
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(MAX(log_index) + 1, 0) FROM tx_logs`).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to read next index: %w", err)
	}

	if _, err := r.db.Conn().Exec(`
		INSERT INTO tx_logs (log_index, timestamp, folder, frame, error)
		VALUES (?, ?, ?, ?, ?)
	`, next, log.Timestamp, log.Folder, log.Frame, log.Error); err != nil {
		return 0, fmt.Errorf("failed to insert transaction log: %w", err)
	}

	log.Index = next
	return next, nil
}

// InsertBatch adds logs in a single transaction. Existing indices are overwritten.
func (r *TxLogRepository) InsertBatch(logs []model.TransactionLog) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO tx_logs (log_index, timestamp, folder, frame, error)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, log := range logs {
		if _, err := stmt.Exec(log.Index, log.Timestamp, log.Folder, log.Frame, log.Error); err != nil {
			return fmt.Errorf("failed to insert transaction log %d: %w", log.Index, err)
		}
	}

	return tx.Commit()
}

func (r *TxLogRepository) GetAll() ([]model.TransactionLog, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT log_index, timestamp, folder, frame, error
		FROM tx_logs ORDER BY log_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.TransactionLog, 0)
	for rows.Next() {
		var log model.TransactionLog
		if err := rows.Scan(&log.Index, &log.Timestamp, &log.Folder, &log.Frame, &log.Error); err != nil {
			return nil, fmt.Errorf("failed to scan transaction log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func (r *TxLogRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM tx_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transaction logs: %w", err)
	}
	return count, nil
}

func (r *TxLogRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM tx_logs`); err != nil {
		return fmt.Errorf("failed to delete transaction logs: %w", err)
	}
	return nil
}
