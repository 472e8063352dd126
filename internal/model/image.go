package model

import "fmt"

// ImageMetadata identifies one anomaly frame known to the origin.
type ImageMetadata struct {
	Filename        string  `json:"filename"`
	Size            int64   `json:"size"`
	BlockchainMatch bool    `json:"blockchain_match"`
	TxData          *TxData `json:"tx_data,omitempty"`
}

// TxData is the on-chain record matched to an image.
type TxData struct {
	Folder string `json:"folder"`
	Frame  int    `json:"frame"`
	Error  string `json:"error"`
	Index  int    `json:"index"`
}

// Describe renders the caption shown under the main image.
func (m ImageMetadata) Describe() string {
	if m.BlockchainMatch && m.TxData != nil {
		return fmt.Sprintf("🔗 %s | %s Frame %d | Error: %s", m.Filename, m.TxData.Folder, m.TxData.Frame, m.TxData.Error)
	}
	return fmt.Sprintf("📁 %s | Local file (%.1f KB)", m.Filename, float64(m.Size)/1024)
}

// CountMatched returns how many entries are blockchain matched.
func CountMatched(images []ImageMetadata) int {
	n := 0
	for _, img := range images {
		if img.BlockchainMatch {
			n++
		}
	}
	return n
}
