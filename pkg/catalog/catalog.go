// Package catalog loads canonical POS entities and indexes them for matching.
package catalog

import (
	"context"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
)

// Record is a raw catalog row as returned by a POS source. Rows are
// filtered and normalized by the Loader before they reach a Snapshot.
type Record struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// Source fetches raw catalog records for a tenant. Implementations wrap a
// POS API client; the resolver never talks to the POS wire format directly.
type Source interface {
	Fetch(ctx context.Context, tenantID string, kind models.EntityKind) ([]Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, tenantID string, kind models.EntityKind) ([]Record, error)

func (f SourceFunc) Fetch(ctx context.Context, tenantID string, kind models.EntityKind) ([]Record, error) {
	return f(ctx, tenantID, kind)
}
