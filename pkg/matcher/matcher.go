// Package matcher resolves free-text phrases to catalog entities using a
// layered exact-then-fuzzy strategy over an in-memory catalog snapshot and
// alias index.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/catalog"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/scoring"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// Config contains the matcher's scoring thresholds.
type Config struct {
	// Cutoff is the minimum score for a fuzzy candidate to count as a match.
	Cutoff float64
	// SuspectScore is the token-set score above which a candidate sharing at
	// most one token with the input is re-checked before being trusted.
	SuspectScore float64
	// CloseLengthRatio is the length ratio at or above which input and alias
	// are considered close enough in length to trust a suspect score.
	CloseLengthRatio float64
	// MinLengthRatio is the floor a suspect candidate must clear during
	// re-scoring; below it the candidate is discarded outright.
	MinLengthRatio float64
}

// DefaultCutoff returns the default score cutoff for an entity kind.
// Ingredient and product names have more surface-form variety, so their bar
// is slightly lower; the false-positive guard compensates.
func DefaultCutoff(kind models.EntityKind) float64 {
	switch kind {
	case models.EntityKindIngredient, models.EntityKindProduct:
		return 75
	default:
		return 80
	}
}

// DefaultConfig returns the starting thresholds for an entity kind. The guard
// values are tuned against real Russian grocery phrases and are configuration,
// not law.
func DefaultConfig(kind models.EntityKind) Config {
	return Config{
		Cutoff:           DefaultCutoff(kind),
		SuspectScore:     95,
		CloseLengthRatio: 0.6,
		MinLengthRatio:   0.4,
	}
}

type aliasEntry struct {
	entityID    int64
	entityName  string
	tenantLabel string
}

// Matcher resolves phrases for one entity kind against one tenant's catalog,
// or against several tenants' merged catalogs. Matching is read-only; the
// alias index is mutated only through AddAlias.
type Matcher struct {
	mu       sync.RWMutex
	logger   ectologger.Logger
	scorer   *scoring.Scorer
	kind     models.EntityKind
	snapshot *catalog.Snapshot
	aliases  map[string][]aliasEntry
	config   Config
}

// New builds a matcher over a catalog snapshot and a pre-filtered alias set.
// Aliases referencing entities missing from the snapshot are skipped with a
// warning.
func New(logger ectologger.Logger, kind models.EntityKind, snapshot *catalog.Snapshot, aliases []models.Alias, config Config) *Matcher {
	m := &Matcher{
		logger:   logger,
		scorer:   scoring.NewScorer(),
		kind:     kind,
		snapshot: snapshot,
		aliases:  make(map[string][]aliasEntry, len(aliases)),
		config:   config,
	}
	for _, alias := range aliases {
		if !snapshot.Contains(alias.EntityID) {
			logger.WithFields(map[string]any{
				"phrase":    alias.Phrase,
				"entity_id": alias.EntityID,
			}).Warn("Skipping alias referencing entity missing from catalog")
			continue
		}
		phrase := normalize.Phrase(alias.Phrase)
		if phrase == "" {
			continue
		}
		m.aliases[phrase] = append(m.aliases[phrase], aliasEntry{
			entityID:    alias.EntityID,
			entityName:  alias.EntityName,
			tenantLabel: alias.TenantID,
		})
	}
	return m
}

// Kind returns the entity kind this matcher covers.
func (m *Matcher) Kind() models.EntityKind {
	return m.kind
}

// CatalogSize returns the number of entities in the loaded snapshot.
func (m *Matcher) CatalogSize() int {
	return m.snapshot.Len()
}

// ContainsEntity reports whether the loaded catalog has an entity with the
// given id in any tenant.
func (m *Matcher) ContainsEntity(id int64) bool {
	return m.snapshot.Contains(id)
}

// AliasCount returns the number of phrases in the alias index.
func (m *Matcher) AliasCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.aliases)
}

// Match resolves a phrase to the single best entity, or nil when nothing
// clears the cutoff. Unmatched input is a normal outcome, never an error.
func (m *Matcher) Match(ctx context.Context, phrase string) (*models.MatchResult, error) {
	return m.MatchWithCutoff(ctx, phrase, m.config.Cutoff)
}

// MatchWithCutoff is Match with an explicit score cutoff.
func (m *Matcher) MatchWithCutoff(ctx context.Context, phrase string, cutoff float64) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matcher.Matcher.Match")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := normalize.Phrase(phrase)
	if normalized == "" {
		return nil, nil
	}

	for _, layer := range m.layers() {
		candidates := layer(normalized, cutoff)
		if len(candidates) > 0 {
			best := bestCandidate(candidates)
			return &best, nil
		}
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_kind": string(m.kind),
	}).Debug("No candidate cleared the cutoff")
	return nil, nil
}

// MatchWithPriority resolves a phrase against merged tenant catalogs,
// preferring candidates belonging to the primary tenant. All candidates that
// clear the cutoff at the first successful layer compete; the primary
// partition wins whenever it is non-empty, regardless of raw scores in the
// other partition.
func (m *Matcher) MatchWithPriority(ctx context.Context, phrase string, primaryTenantLabel string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matcher.Matcher.MatchWithPriority")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := normalize.Phrase(phrase)
	if normalized == "" {
		return nil, nil
	}

	for _, layer := range m.layers() {
		candidates := layer(normalized, m.config.Cutoff)
		if len(candidates) == 0 {
			continue
		}
		primary := make([]models.MatchResult, 0, len(candidates))
		for _, candidate := range candidates {
			if candidate.TenantLabel == primaryTenantLabel {
				primary = append(primary, candidate)
			}
		}
		if len(primary) > 0 {
			best := bestCandidate(primary)
			return &best, nil
		}
		best := bestCandidate(candidates)
		return &best, nil
	}

	return nil, nil
}

// TopMatches returns up to limit candidates clearing the cutoff, drawn from
// both the alias index and catalog names, deduplicated by entity keeping the
// highest score, sorted by descending score.
func (m *Matcher) TopMatches(ctx context.Context, phrase string, limit int, cutoff float64) ([]models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matcher.Matcher.TopMatches")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := normalize.Phrase(phrase)
	if normalized == "" {
		return nil, nil
	}

	merged := make([]models.MatchResult, 0)
	for _, layer := range m.layers() {
		merged = append(merged, layer(normalized, cutoff)...)
	}

	type dedupeKey struct {
		tenantLabel string
		entityID    int64
	}
	bestByID := make(map[dedupeKey]models.MatchResult)
	for _, candidate := range merged {
		key := dedupeKey{tenantLabel: candidate.TenantLabel, entityID: candidate.EntityID}
		if existing, ok := bestByID[key]; !ok || candidate.Score > existing.Score {
			bestByID[key] = candidate
		}
	}

	results := make([]models.MatchResult, 0, len(bestByID))
	for _, candidate := range bestByID {
		results = append(results, candidate)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntityID < results[j].EntityID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// AddAlias registers a learned alias in the in-memory index. The entity must
// exist in the loaded catalog. Visible to the very next Match call.
func (m *Matcher) AddAlias(ctx context.Context, phrase string, entityID int64, entityName string) error {
	_, span := tracing.StartSpan(ctx, "matcher.Matcher.AddAlias")
	defer span.End()

	normalized := normalize.Phrase(phrase)
	if normalized == "" {
		return fmt.Errorf("alias phrase normalizes to empty")
	}
	if !m.snapshot.Contains(entityID) {
		return fmt.Errorf("entity %d is not in the loaded catalog", entityID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tenantLabel := ""
	for _, entity := range m.snapshot.Entities() {
		if entity.ID == entityID {
			tenantLabel = entity.TenantLabel
			if entityName == "" {
				entityName = entity.Name
			}
			break
		}
	}

	entries := m.aliases[normalized]
	for i, entry := range entries {
		if entry.tenantLabel == tenantLabel {
			entries[i] = aliasEntry{entityID: entityID, entityName: entityName, tenantLabel: tenantLabel}
			m.aliases[normalized] = entries
			return nil
		}
	}
	m.aliases[normalized] = append(entries, aliasEntry{entityID: entityID, entityName: entityName, tenantLabel: tenantLabel})
	return nil
}

type layerFunc func(normalized string, cutoff float64) []models.MatchResult

// layers returns the match stages in strict order; the first stage producing
// candidates wins.
func (m *Matcher) layers() []layerFunc {
	return []layerFunc{
		m.aliasExact,
		m.nameExact,
		m.aliasFuzzy,
		m.nameFuzzy,
	}
}

func (m *Matcher) aliasExact(normalized string, _ float64) []models.MatchResult {
	entries, ok := m.aliases[normalized]
	if !ok {
		return nil
	}
	results := make([]models.MatchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, m.resolveAlias(entry, models.ExactScore))
	}
	return results
}

func (m *Matcher) nameExact(normalized string, _ float64) []models.MatchResult {
	entities := m.snapshot.LookupName(normalized)
	results := make([]models.MatchResult, 0, len(entities))
	for _, entity := range entities {
		results = append(results, models.MatchResult{
			EntityID:    entity.ID,
			EntityName:  entity.Name,
			Unit:        entity.Unit,
			Score:       models.ExactScore,
			TenantLabel: entity.TenantLabel,
			Origin:      models.OriginName,
		})
	}
	return results
}

func (m *Matcher) aliasFuzzy(normalized string, cutoff float64) []models.MatchResult {
	var results []models.MatchResult
	for phrase, entries := range m.aliases {
		score := m.scorer.TokenSetRatio(normalized, phrase)
		if score < cutoff {
			continue
		}
		score, ok := m.guard(normalized, phrase, score, cutoff)
		if !ok {
			continue
		}
		for _, entry := range entries {
			results = append(results, m.resolveAlias(entry, score))
		}
	}
	return results
}

// guard re-checks token-set scores that look too good. Token-set scoring
// over-rewards a single shared rare word between otherwise unrelated phrases
// (a one-word alias matching inside a long unrelated input), so a suspect
// candidate must survive a whole-string re-score and a length-ratio floor.
func (m *Matcher) guard(normalized, phrase string, score, cutoff float64) (float64, bool) {
	if score <= m.config.SuspectScore {
		return score, true
	}
	if m.scorer.SharedTokens(normalized, phrase) > 1 {
		return score, true
	}
	lengthRatio := m.scorer.LengthRatio(normalized, phrase)
	if lengthRatio >= m.config.CloseLengthRatio {
		return score, true
	}

	strict := m.scorer.Ratio(normalized, phrase)
	if strict >= cutoff && lengthRatio >= m.config.MinLengthRatio {
		return strict, true
	}

	m.logger.WithFields(map[string]any{
		"entity_kind":  string(m.kind),
		"alias":        phrase,
		"score":        score,
		"strict_score": strict,
		"length_ratio": lengthRatio,
	}).Debug("Discarding suspicious alias candidate")
	return 0, false
}

func (m *Matcher) nameFuzzy(normalized string, cutoff float64) []models.MatchResult {
	var results []models.MatchResult
	for _, entity := range m.snapshot.Entities() {
		score := m.scorer.WeightedRatio(normalized, normalize.Phrase(entity.Name))
		if score < cutoff {
			continue
		}
		results = append(results, models.MatchResult{
			EntityID:    entity.ID,
			EntityName:  entity.Name,
			Unit:        entity.Unit,
			Score:       score,
			TenantLabel: entity.TenantLabel,
			Origin:      models.OriginName,
		})
	}
	return results
}

func (m *Matcher) resolveAlias(entry aliasEntry, score float64) models.MatchResult {
	result := models.MatchResult{
		EntityID:    entry.entityID,
		EntityName:  entry.entityName,
		Score:       score,
		TenantLabel: entry.tenantLabel,
		Origin:      models.OriginAlias,
	}
	if entity, ok := m.snapshot.LookupID(entry.tenantLabel, entry.entityID); ok {
		result.EntityName = entity.Name
		result.Unit = entity.Unit
	}
	return result
}

// bestCandidate picks the highest score, breaking ties by lower entity id for
// determinism.
func bestCandidate(candidates []models.MatchResult) models.MatchResult {
	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Score > best.Score || (candidate.Score == best.Score && candidate.EntityID < best.EntityID) {
			best = candidate
		}
	}
	return best
}
