package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"anomalydash/internal/model"
	"anomalydash/internal/repository/sqlite"
)

// seedFile accepts either a bare log array or a blockchain-data response body.
type seedFile struct {
	TxLogs []model.TransactionLog `json:"tx_logs"`
}

func readLogs(path string) ([]model.TransactionLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var logs []model.TransactionLog
	if err := json.Unmarshal(data, &logs); err == nil {
		return logs, nil
	}
	var body seedFile
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%s is neither a log array nor a tx_logs object: %w", path, err)
	}
	return body.TxLogs, nil
}

// normalizeIndices numbers logs by position when their indices are not unique,
// which is the case for files written without an index field.
func normalizeIndices(logs []model.TransactionLog) {
	seen := make(map[int]bool, len(logs))
	for _, tx := range logs {
		if seen[tx.Index] {
			for i := range logs {
				logs[i].Index = i
			}
			return
		}
		seen[tx.Index] = true
	}
}

func main() {
	input := flag.String("input", "tx_logs.json", "JSON file with transaction logs")
	dbPath := flag.String("db", filepath.Join("data", "chain.db"), "Database path")
	reset := flag.Bool("reset", false, "Delete existing logs first")
	flag.Parse()

	fmt.Printf("Seeding transaction logs from %s into %s\n", *input, *dbPath)

	logs, err := readLogs(*input)
	if err != nil {
		log.Fatalf("Failed to read logs: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewTxLogRepository(db)

	if *reset {
		if err := repo.DeleteAll(); err != nil {
			log.Fatalf("Failed to reset logs: %v", err)
		}
	}

	normalizeIndices(logs)
	if len(logs) == 0 {
		fmt.Println("No transaction logs found to seed")
		return
	}
	if err := repo.InsertBatch(logs); err != nil {
		log.Fatalf("Failed to insert logs: %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		log.Fatalf("Failed to count logs: %v", err)
	}
	fmt.Printf("✅ Seeded %d logs, the chain now holds %d\n", len(logs), count)
}
