// Package events handles event emission for alias and catalog lifecycle
// changes.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/kafka"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes resolver lifecycle events. Emission failures are logged
// and returned but never block the operation that triggered them.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitAliasLearned emits an alias.learned event after a user's
// disambiguation choice is committed.
func (e *Emitter) EmitAliasLearned(ctx context.Context, alias models.Alias) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAliasLearned")
	defer span.End()

	event := &kafka.AliasEvent{
		EventType:  string(EventTypeAliasLearned),
		TenantID:   alias.TenantID,
		Phrase:     alias.Phrase,
		EntityID:   alias.EntityID,
		EntityKind: string(alias.EntityKind),
		Provenance: alias.Provenance,
	}

	if err := e.producer.PublishAliasEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit alias.learned event")
		return err
	}

	return nil
}

// EmitAliasImported emits an alias.imported event after a seed bulk load.
func (e *Emitter) EmitAliasImported(ctx context.Context, tenantID string, kind models.EntityKind, imported int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAliasImported")
	defer span.End()

	event := &kafka.AliasEvent{
		EventType:  string(EventTypeAliasImported),
		TenantID:   tenantID,
		EntityKind: string(kind),
		Provenance: models.ProvenanceSeedImport,
		Count:      imported,
	}

	if err := e.producer.PublishAliasEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit alias.imported event")
		return err
	}

	return nil
}

// EmitMatchAmbiguous emits a match.ambiguous event when a phrase produced
// several candidates and a human was asked to disambiguate.
func (e *Emitter) EmitMatchAmbiguous(ctx context.Context, tenantID, phrase string, kind models.EntityKind, candidateCount int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchAmbiguous")
	defer span.End()

	event := &kafka.MatchEvent{
		EventType:      string(EventTypeMatchAmbiguous),
		TenantID:       tenantID,
		Phrase:         phrase,
		EntityKind:     string(kind),
		CandidateCount: candidateCount,
	}

	if err := e.producer.PublishMatchEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.ambiguous event")
		return err
	}

	return nil
}

// EmitCatalogSynced emits a catalog.synced event after a matcher rebuild.
func (e *Emitter) EmitCatalogSynced(ctx context.Context, tenantID string, kind models.EntityKind, entityCount int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCatalogSynced")
	defer span.End()

	event := &kafka.CatalogEvent{
		EventType:   string(EventTypeCatalogSynced),
		TenantID:    tenantID,
		EntityKind:  string(kind),
		EntityCount: entityCount,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit catalog.synced event")
		return err
	}

	return nil
}
