package catalog

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// Loader builds catalog snapshots from a POS source, filtering out rows the
// matcher cannot use.
type Loader struct {
	logger ectologger.Logger
	source Source
	config LoaderConfig
}

// LoaderConfig controls catalog filtering.
type LoaderConfig struct {
	// ProductCategories restricts the product kind to the listed categories
	// (normalized comparison). Empty means no category filtering.
	ProductCategories []string
}

func NewLoader(logger ectologger.Logger, source Source, config LoaderConfig) *Loader {
	return &Loader{
		logger: logger,
		source: source,
		config: config,
	}
}

// Load fetches one tenant's catalog for a kind and indexes it. Rows without a
// usable id or name are skipped with a warning; a source error is returned
// as-is so callers can tell an unavailable catalog from an empty one.
func (l *Loader) Load(ctx context.Context, tenantID string, kind models.EntityKind) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Loader.Load")
	defer span.End()

	log := l.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"entity_kind": string(kind),
	})

	records, err := l.source.Fetch(ctx, tenantID, kind)
	if err != nil {
		log.WithError(err).Error("Failed to fetch catalog from source")
		return nil, err
	}

	entities := make([]models.CanonicalEntity, 0, len(records))
	skipped := 0
	for _, record := range records {
		if record.ID <= 0 || strings.TrimSpace(record.Name) == "" {
			skipped++
			log.WithFields(map[string]any{"record_id": record.ID}).Warn("Skipping catalog row without usable id or name")
			continue
		}
		if kind == models.EntityKindProduct && !l.categoryAllowed(record.Category) {
			skipped++
			continue
		}
		entities = append(entities, models.CanonicalEntity{
			ID:          record.ID,
			Name:        record.Name,
			Unit:        record.Unit,
			TenantLabel: tenantID,
		})
	}

	log.WithFields(map[string]any{
		"entity_count":  len(entities),
		"skipped_count": skipped,
	}).Debug("Loaded catalog snapshot")

	return NewSnapshot(kind, entities), nil
}

func (l *Loader) categoryAllowed(category string) bool {
	if len(l.config.ProductCategories) == 0 {
		return true
	}
	normalized := normalize.Phrase(category)
	for _, allowed := range l.config.ProductCategories {
		if normalize.Phrase(allowed) == normalized {
			return true
		}
	}
	return false
}
