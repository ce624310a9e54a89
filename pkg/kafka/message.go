package kafka

import (
	"encoding/json"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string
}

// CatalogChangedMessage signals that a tenant's POS catalog was modified
// upstream and any cached matchers for it are stale.
type CatalogChangedMessage struct {
	Type       string    `json:"type"` // "catalog.changed"
	TenantID   string    `json:"tenant_id"`
	EntityKind string    `json:"entity_kind,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsCatalogChanged checks if the message is a catalog.changed event
func (m *IncomingMessage) IsCatalogChanged() bool {
	if msgType := m.Headers["type"]; msgType == "catalog.changed" {
		return true
	}
	if msgType := m.Headers["event_type"]; msgType == "catalog.changed" {
		return true
	}

	var msg CatalogChangedMessage
	if err := json.Unmarshal(m.Value, &msg); err == nil {
		return msg.Type == "catalog.changed"
	}
	return false
}

// ParseCatalogChanged parses the message as a catalog.changed event
func (m *IncomingMessage) ParseCatalogChanged() (*CatalogChangedMessage, error) {
	var msg CatalogChangedMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetTenantID returns the tenant ID from the message body or headers
func (m *IncomingMessage) GetTenantID() string {
	var msg CatalogChangedMessage
	if err := json.Unmarshal(m.Value, &msg); err == nil && msg.TenantID != "" {
		return msg.TenantID
	}
	return m.Headers["tenant_id"]
}
