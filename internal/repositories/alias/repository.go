package alias

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/database"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/metrics"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// Repository is the Postgres-backed alias store.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new alias repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Load retrieves all aliases for a tenant and entity kind
func (r *Repository) Load(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Alias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.Load")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("tenant_id", "phrase", "entity_id", "entity_name", "entity_kind", "provenance", "created_at", "updated_at")
	sb.From("aliases")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("entity_kind", string(kind)),
	)
	sb.OrderBy("phrase")

	query, args := sb.Build()
	var aliases []models.Alias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load aliases")
	}

	return aliases, nil
}

// Add upserts a single alias. The phrase is stored in normalized form; the
// reported outcome distinguishes a fresh mapping, a repeat of the same
// mapping, and a remap of the phrase to a different entity.
func (r *Repository) Add(ctx context.Context, alias models.Alias) (AddOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.Add")
	defer span.End()

	alias.Phrase = normalize.Phrase(alias.Phrase)
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Add",
		"tenant_id":   alias.TenantID,
		"phrase":      alias.Phrase,
		"entity_id":   alias.EntityID,
		"entity_kind": string(alias.EntityKind),
	})

	existing, err := r.get(ctx, alias.TenantID, alias.Phrase, alias.EntityKind)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.EntityID == alias.EntityID {
		return AddOutcomeAlreadyExists, nil
	}

	now := time.Now().UTC()
	start := now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("aliases")
	sb.Cols("tenant_id", "phrase", "entity_id", "entity_name", "entity_kind", "provenance", "created_at", "updated_at")
	sb.Values(alias.TenantID, alias.Phrase, alias.EntityID, alias.EntityName, string(alias.EntityKind), alias.Provenance, now, now)
	sb.SQL("ON CONFLICT (tenant_id, phrase, entity_kind) DO UPDATE SET entity_id = EXCLUDED.entity_id, entity_name = EXCLUDED.entity_name, provenance = EXCLUDED.provenance, updated_at = EXCLUDED.updated_at")

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to upsert alias")
		return "", httperror.NewHTTPError(http.StatusBadGateway, "failed to persist alias")
	}
	metrics.DatabaseQueryDuration.WithLabelValues("alias_upsert").Observe(time.Since(start).Seconds())

	if existing != nil {
		log.WithFields(map[string]any{"previous_entity_id": existing.EntityID}).Info("Remapped alias to a different entity")
		return AddOutcomeUpdated, nil
	}

	log.Info("Created alias")
	return AddOutcomeCreated, nil
}

// BulkLoad upserts seed records, skipping malformed rows and rows referencing
// entities missing from the catalog. Returns the number of rows imported.
func (r *Repository) BulkLoad(ctx context.Context, tenantID string, records []models.AliasRecord, known func(int64) bool) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.BulkLoad")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":       "BulkLoad",
		"tenant_id":    tenantID,
		"record_count": len(records),
	})

	imported := 0
	for _, record := range records {
		phrase := normalize.Phrase(record.Phrase)
		if phrase == "" || record.EntityID <= 0 || !record.EntityKind.Valid() {
			metrics.RecordImportSkip(tenantID, "malformed")
			log.WithFields(map[string]any{"phrase": record.Phrase, "entity_id": record.EntityID}).Warn("Skipping malformed alias record")
			continue
		}
		if known != nil && !known(record.EntityID) {
			metrics.RecordImportSkip(tenantID, "stale_entity")
			log.WithFields(map[string]any{"phrase": phrase, "entity_id": record.EntityID}).Warn("Skipping alias record referencing unknown entity")
			continue
		}

		provenance := record.Provenance
		if provenance == "" {
			provenance = models.ProvenanceSeedImport
		}

		if _, err := r.Add(ctx, models.Alias{
			TenantID:   tenantID,
			Phrase:     phrase,
			EntityID:   record.EntityID,
			EntityName: record.EntityName,
			EntityKind: record.EntityKind,
			Provenance: provenance,
		}); err != nil {
			return imported, err
		}
		imported++
	}

	log.WithFields(map[string]any{"imported_count": imported}).Info("Imported alias records")
	return imported, nil
}

func (r *Repository) get(ctx context.Context, tenantID, phrase string, kind models.EntityKind) (*models.Alias, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("tenant_id", "phrase", "entity_id", "entity_name", "entity_kind", "provenance", "created_at", "updated_at")
	sb.From("aliases")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("phrase", phrase),
		sb.Equal("entity_kind", string(kind)),
	)

	query, args := sb.Build()
	var alias models.Alias
	if err := r.db.GetContext(ctx, &alias, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get alias")
	}

	return &alias, nil
}
