package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of event
type EventType string

const (
	// Alias events
	EventTypeAliasLearned  EventType = "alias.learned"
	EventTypeAliasImported EventType = "alias.imported"

	// Catalog events
	EventTypeCatalogSynced  EventType = "catalog.synced"
	EventTypeCatalogChanged EventType = "catalog.changed"

	// Match events
	EventTypeMatchAmbiguous EventType = "match.ambiguous"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType, tenantID string) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		TenantID:      tenantID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
