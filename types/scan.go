package types

import "time"

// ScanProgress reports how far an index run has come.
type ScanProgress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ScanMessage is pushed to WebSocket clients while a scan runs.
type ScanMessage struct {
	Type      string       `json:"type"` // "progress", "complete", "error"
	Progress  ScanProgress `json:"progress"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
