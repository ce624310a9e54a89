// Package learner commits a user's disambiguation choice so future identical
// phrases resolve without asking.
package learner

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Muahhidun/poster-helper-bot-sub000/internal/repositories/alias"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/events"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/matcher"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/metrics"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// PersistError reports that the learned alias is live in the in-memory index
// but was not durably written. The caller must surface this so an operator can
// retry; the current session keeps working either way.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("alias indexed but not persisted: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Learner wires matcher index updates to durable alias storage.
type Learner struct {
	store   alias.Store
	emitter *events.Emitter
	logger  ectologger.Logger
}

// NewLearner creates a new learner
func NewLearner(store alias.Store, emitter *events.Emitter, logger ectologger.Logger) *Learner {
	return &Learner{
		store:   store,
		emitter: emitter,
		logger:  logger,
	}
}

// Learn records that raw phrase means the chosen entity for this tenant and
// kind. The matcher's in-memory index is updated first so the very next match
// in the same session benefits, then the mapping is persisted; a persistence
// failure is returned as *PersistError while the index update stands.
func (l *Learner) Learn(ctx context.Context, m *matcher.Matcher, tenantID, rawPhrase string, entityID int64, entityName string, kind models.EntityKind) error {
	ctx, span := tracing.StartSpan(ctx, "learner.Learner.Learn")
	defer span.End()

	log := l.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"entity_id":   entityID,
		"entity_kind": string(kind),
	})

	normalized := normalize.Phrase(rawPhrase)
	if normalized == "" {
		return fmt.Errorf("phrase %q normalizes to empty", rawPhrase)
	}

	if err := m.AddAlias(ctx, normalized, entityID, entityName); err != nil {
		metrics.RecordAliasLearned(tenantID, string(kind), "rejected")
		return err
	}

	record := models.Alias{
		TenantID:   tenantID,
		Phrase:     normalized,
		EntityID:   entityID,
		EntityName: entityName,
		EntityKind: kind,
		Provenance: models.ProvenanceUserSelection,
	}

	outcome, err := l.store.Add(ctx, record)
	if err != nil {
		metrics.RecordAliasLearned(tenantID, string(kind), "persist_failed")
		log.WithError(err).Error("Learned alias is indexed but persistence failed")
		return &PersistError{Err: err}
	}

	metrics.RecordAliasLearned(tenantID, string(kind), string(outcome))
	log.WithFields(map[string]any{"phrase": normalized, "outcome": string(outcome)}).Info("Learned alias")

	if l.emitter != nil {
		if err := l.emitter.EmitAliasLearned(ctx, record); err != nil {
			log.WithError(err).Warn("Failed to emit alias.learned event")
		}
	}

	return nil
}
