// Package events defines the messages pushed to dashboards over /ws.
package events

import "opspulse/pkg/contracts/domain"

// Message types sent to clients
const (
	TypeConnection       = "connection"
	TypeDatasetRefreshed = "dataset:refreshed"
	TypeDatasetCleared   = "dataset:cleared"
)

// Message is the envelope of every frame sent to a client.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// ConnectionEvent greets a client once the hub has registered it.
type ConnectionEvent struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// DatasetEvent is the payload of dataset:refreshed and dataset:cleared. A
// cleared event carries only Kind.
type DatasetEvent struct {
	Kind        string               `json:"kind"`
	DatasetID   string               `json:"datasetId,omitempty"`
	Source      domain.DatasetSource `json:"source,omitempty"`
	RowCount    int                  `json:"rowCount"`
	Fingerprint string               `json:"fingerprint,omitempty"`
}
