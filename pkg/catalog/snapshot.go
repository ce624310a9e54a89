package catalog

import (
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
)

type entityKey struct {
	tenantLabel string
	id          int64
}

// Snapshot is an immutable in-memory view of one tenant's catalog for a
// single entity kind, or of several tenants' catalogs merged. Entity ids are
// only unique within a tenant, so lookups are keyed by (tenant label, id).
type Snapshot struct {
	kind      models.EntityKind
	entries   []models.CanonicalEntity
	nameIndex map[string][]int
	idIndex   map[entityKey]int
	ids       map[int64]struct{}
}

// NewSnapshot indexes the given entities. Names are indexed in normalized
// form; duplicate normalized names across tenants keep all owners.
func NewSnapshot(kind models.EntityKind, entities []models.CanonicalEntity) *Snapshot {
	s := &Snapshot{
		kind:      kind,
		entries:   entities,
		nameIndex: make(map[string][]int, len(entities)),
		idIndex:   make(map[entityKey]int, len(entities)),
		ids:       make(map[int64]struct{}, len(entities)),
	}
	for i, entity := range entities {
		name := normalize.Phrase(entity.Name)
		s.nameIndex[name] = append(s.nameIndex[name], i)
		s.idIndex[entityKey{tenantLabel: entity.TenantLabel, id: entity.ID}] = i
		s.ids[entity.ID] = struct{}{}
	}
	return s
}

// Kind returns the entity kind this snapshot covers.
func (s *Snapshot) Kind() models.EntityKind {
	return s.kind
}

// Len returns the number of indexed entities.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entities returns all indexed entities. The returned slice is shared; callers
// must not mutate it.
func (s *Snapshot) Entities() []models.CanonicalEntity {
	return s.entries
}

// LookupID returns the entity with the given id within a tenant, if indexed.
func (s *Snapshot) LookupID(tenantLabel string, id int64) (models.CanonicalEntity, bool) {
	i, ok := s.idIndex[entityKey{tenantLabel: tenantLabel, id: id}]
	if !ok {
		return models.CanonicalEntity{}, false
	}
	return s.entries[i], true
}

// Contains reports whether any indexed entity carries the given id,
// regardless of tenant. Used to validate alias references on load.
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// LookupName returns all entities whose normalized name equals the given
// normalized phrase.
func (s *Snapshot) LookupName(normalized string) []models.CanonicalEntity {
	indexes, ok := s.nameIndex[normalized]
	if !ok {
		return nil
	}
	entities := make([]models.CanonicalEntity, 0, len(indexes))
	for _, i := range indexes {
		entities = append(entities, s.entries[i])
	}
	return entities
}

// MergeSnapshots combines several single-tenant snapshots of the same kind
// into one. Entries keep their tenant labels, so a merged snapshot can still
// answer per-tenant id lookups.
func MergeSnapshots(kind models.EntityKind, snapshots ...*Snapshot) *Snapshot {
	total := 0
	for _, snapshot := range snapshots {
		total += snapshot.Len()
	}
	entities := make([]models.CanonicalEntity, 0, total)
	for _, snapshot := range snapshots {
		entities = append(entities, snapshot.entries...)
	}
	return NewSnapshot(kind, entities)
}
