// Package alias exposes alias learning and seed import over HTTP.
package alias

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	aliasrepo "github.com/Muahhidun/poster-helper-bot-sub000/internal/repositories/alias"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/appcontext"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/events"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/learner"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/registry"
)

// LearnRequest represents a user's disambiguation choice
type LearnRequest struct {
	Phrase     string   `json:"phrase" validate:"required"`
	EntityID   int64    `json:"entity_id" validate:"required,gt=0"`
	EntityName string   `json:"entity_name"`
	EntityKind string   `json:"entity_kind" validate:"required"`
	Tenants    []string `json:"tenants,omitempty"`
}

// LearnResponse reports the learning outcome. Indexed is true whenever the
// in-memory index was updated, even if persistence failed.
type LearnResponse struct {
	Status  string `json:"status"`
	Indexed bool   `json:"indexed"`
	Message string `json:"message,omitempty"`
}

// ImportRequest represents a seed import batch
type ImportRequest struct {
	EntityKind string               `json:"entity_kind" validate:"required"`
	Records    []models.AliasRecord `json:"records" validate:"required"`
}

// ImportResponse reports how many records were imported; the rest were
// skipped with logged warnings.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Register registers alias routes
func Register(g *echo.Group) {
	g.POST("/learn", Learn)
	g.POST("/import", Import)
}

// Learn commits a user's disambiguation choice
func Learn(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req LearnRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	kind := models.EntityKind(req.EntityKind)
	if req.Phrase == "" || req.EntityID <= 0 || !kind.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "phrase, entity_id and a valid entity_kind are required")
	}

	ctx, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, l, err := ectoinject.GetContext[*learner.Learner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	tenants := append([]string{tenantID}, req.Tenants...)
	m, err := reg.GetMerged(ctx, tenants, kind)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}

	if err := l.Learn(ctx, m, tenantID, req.Phrase, req.EntityID, req.EntityName, kind); err != nil {
		var persistErr *learner.PersistError
		if errors.As(err, &persistErr) {
			// The session keeps working off the in-memory index, but the
			// operator must know the write was lost.
			return c.JSON(http.StatusBadGateway, LearnResponse{
				Status:  "persist_failed",
				Indexed: true,
				Message: persistErr.Error(),
			})
		}
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, LearnResponse{Status: "learned", Indexed: true})
}

// Import seeds aliases from an external export
func Import(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	kind := models.EntityKind(req.EntityKind)
	if !kind.Valid() || len(req.Records) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "a valid entity_kind and at least one record are required")
	}

	ctx, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, store, err := ectoinject.GetContext[aliasrepo.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	// The import only accepts records whose entity still exists in the
	// tenant's catalog.
	m, err := reg.Get(ctx, tenantID, kind)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}

	imported, err := store.BulkLoad(ctx, tenantID, req.Records, m.ContainsEntity)
	if err != nil {
		return err
	}

	ctx, emitter, emitterErr := ectoinject.GetContext[*events.Emitter](ctx)
	if emitterErr == nil && emitter != nil {
		_ = emitter.EmitAliasImported(ctx, tenantID, kind, imported)
	}

	// Imported aliases become matchable on the next rebuild.
	reg.Invalidate(tenantID)

	return c.JSON(http.StatusOK, ImportResponse{
		Imported: imported,
		Skipped:  len(req.Records) - imported,
	})
}
