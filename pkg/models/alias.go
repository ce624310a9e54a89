package models

import "time"

// Alias provenance values.
const (
	ProvenanceSeedImport    = "seed_import"
	ProvenanceUserSelection = "user_selection"
	ProvenanceManual        = "manual"
)

// Alias maps a phrase a human actually typed or said to a canonical entity.
// Within one (tenant_id, phrase, entity_kind) the mapping is unique; last
// write wins.
type Alias struct {
	TenantID   string     `json:"tenant_id" db:"tenant_id"`
	Phrase     string     `json:"phrase" db:"phrase"`
	EntityID   int64      `json:"entity_id" db:"entity_id"`
	EntityName string     `json:"entity_name" db:"entity_name"`
	EntityKind EntityKind `json:"entity_kind" db:"entity_kind"`
	Provenance string     `json:"provenance" db:"provenance"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// AliasRecord is the shape a seed import feeds into the store. The file
// format that produces these records is owned by the import tooling, not by
// this service.
type AliasRecord struct {
	Phrase     string     `json:"phrase" validate:"required"`
	EntityID   int64      `json:"entity_id" validate:"required,gt=0"`
	EntityName string     `json:"entity_name"`
	EntityKind EntityKind `json:"entity_kind" validate:"required"`
	Provenance string     `json:"provenance"`
}
