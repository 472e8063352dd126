package model

// TransactionLog is one anomaly record read from the chain.
type TransactionLog struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Folder    string `json:"folder"`
	Frame     int    `json:"frame"`
	Error     string `json:"error"`
}
