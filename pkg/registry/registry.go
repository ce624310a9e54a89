// Package registry caches one matcher per tenant (or merged tenant group) and
// entity kind for the process lifetime.
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Muahhidun/poster-helper-bot-sub000/internal/repositories/alias"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/catalog"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/events"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/matcher"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/metrics"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// Registry builds matchers lazily and caches them until an explicit
// invalidation. A failed build is never cached, so one tenant's unavailable
// catalog does not poison the others.
type Registry struct {
	mu       sync.RWMutex
	cache    map[string]*matcher.Matcher
	logger   ectologger.Logger
	loader   *catalog.Loader
	store    alias.Store
	emitter  *events.Emitter
	configFn func(models.EntityKind) matcher.Config
}

// NewRegistry creates a matcher registry. configFn may be nil, in which case
// per-kind defaults apply.
func NewRegistry(logger ectologger.Logger, loader *catalog.Loader, store alias.Store, emitter *events.Emitter, configFn func(models.EntityKind) matcher.Config) *Registry {
	if configFn == nil {
		configFn = matcher.DefaultConfig
	}
	return &Registry{
		cache:    make(map[string]*matcher.Matcher),
		logger:   logger,
		loader:   loader,
		store:    store,
		emitter:  emitter,
		configFn: configFn,
	}
}

// Get returns the cached matcher for a tenant and kind, building it on first
// use. A build failure means the tenant's catalog is unavailable; nothing is
// cached and the error propagates.
func (r *Registry) Get(ctx context.Context, tenantID string, kind models.EntityKind) (*matcher.Matcher, error) {
	return r.GetMerged(ctx, []string{tenantID}, kind)
}

// GetMerged returns a matcher over the union of the given tenants' catalogs
// and aliases. Entities keep their originating tenant label so
// MatchWithPriority can discriminate.
func (r *Registry) GetMerged(ctx context.Context, tenantIDs []string, kind models.EntityKind) (*matcher.Matcher, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Registry.GetMerged")
	defer span.End()

	key := cacheKey(tenantIDs, kind)

	r.mu.RLock()
	m, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := r.build(ctx, tenantIDs, kind)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Another request may have built the same matcher meanwhile; keep the
	// cached one so learned aliases are not lost.
	if existing, ok := r.cache[key]; ok {
		m = existing
	} else {
		r.cache[key] = m
	}
	r.mu.Unlock()

	return m, nil
}

// Invalidate drops every cached matcher involving the tenant, including
// merged ones. The next Get rebuilds from source.
func (r *Registry) Invalidate(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.cache {
		if keyContainsTenant(key, tenantID) {
			delete(r.cache, key)
		}
	}
	r.logger.WithFields(map[string]any{"tenant_id": tenantID}).Info("Invalidated cached matchers")
}

// Sync rebuilds all entity kinds for a tenant from source and emits
// catalog.synced per kind. Used by the explicit sync trigger.
func (r *Registry) Sync(ctx context.Context, tenantID string) error {
	ctx, span := tracing.StartSpan(ctx, "registry.Registry.Sync")
	defer span.End()

	r.Invalidate(tenantID)

	for _, kind := range models.EntityKinds {
		m, err := r.Get(ctx, tenantID, kind)
		if err != nil {
			metrics.RecordCatalogSync(tenantID, "error")
			return err
		}
		if r.emitter != nil {
			if err := r.emitter.EmitCatalogSynced(ctx, tenantID, kind, m.CatalogSize()); err != nil {
				r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit catalog.synced event")
			}
		}
	}

	metrics.RecordCatalogSync(tenantID, "success")
	return nil
}

func (r *Registry) build(ctx context.Context, tenantIDs []string, kind models.EntityKind) (*matcher.Matcher, error) {
	start := time.Now()

	snapshots := make([]*catalog.Snapshot, 0, len(tenantIDs))
	var aliases []models.Alias
	for _, tenantID := range tenantIDs {
		snapshot, err := r.loader.Load(ctx, tenantID, kind)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)

		loaded, err := r.store.Load(ctx, tenantID, kind)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, loaded...)
	}

	snapshot := snapshots[0]
	if len(snapshots) > 1 {
		snapshot = catalog.MergeSnapshots(kind, snapshots...)
	}

	aliases = alias.FilterToCatalog(r.logger, strings.Join(tenantIDs, ","), aliases, snapshot.Contains)
	m := matcher.New(r.logger, kind, snapshot, aliases, r.configFn(kind))

	metrics.MatcherBuildDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	for _, tenantID := range tenantIDs {
		metrics.CatalogEntities.WithLabelValues(tenantID, string(kind)).Set(float64(snapshot.Len()))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_ids":   tenantIDs,
		"entity_kind":  string(kind),
		"entity_count": snapshot.Len(),
		"alias_count":  len(aliases),
	}).Info("Built matcher")

	return m, nil
}

const keySeparator = "|"

func cacheKey(tenantIDs []string, kind models.EntityKind) string {
	return strings.Join(tenantIDs, keySeparator) + keySeparator + string(kind)
}

func keyContainsTenant(key, tenantID string) bool {
	parts := strings.Split(key, keySeparator)
	for _, part := range parts[:len(parts)-1] {
		if part == tenantID {
			return true
		}
	}
	return false
}
