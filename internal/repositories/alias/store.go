// Package alias persists learned phrase-to-entity mappings per tenant.
package alias

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
)

// AddOutcome describes what an Add did to the store.
type AddOutcome string

const (
	AddOutcomeCreated       AddOutcome = "created"
	AddOutcomeAlreadyExists AddOutcome = "already_exists"
	AddOutcomeUpdated       AddOutcome = "updated"
)

// Store persists aliases. Add is idempotent per (tenant_id, phrase,
// entity_kind): re-adding the same mapping reports already_exists, a
// conflicting mapping for the same key replaces the old one.
type Store interface {
	Load(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Alias, error)
	Add(ctx context.Context, alias models.Alias) (AddOutcome, error)
	BulkLoad(ctx context.Context, tenantID string, records []models.AliasRecord, known func(int64) bool) (int, error)
}

// FilterToCatalog drops aliases whose entity id is no longer in the catalog.
// Stale references are expected after catalog changes and are only logged.
func FilterToCatalog(logger ectologger.Logger, tenantID string, aliases []models.Alias, known func(int64) bool) []models.Alias {
	kept := make([]models.Alias, 0, len(aliases))
	for _, a := range aliases {
		if !known(a.EntityID) {
			logger.WithFields(map[string]any{
				"tenant_id":   tenantID,
				"phrase":      a.Phrase,
				"entity_id":   a.EntityID,
				"entity_kind": string(a.EntityKind),
			}).Warn("Dropping alias referencing entity missing from catalog")
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
