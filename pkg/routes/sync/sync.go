// Package sync exposes the explicit catalog resync trigger.
package sync

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/appcontext"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/registry"
)

// Register registers sync routes
func Register(g *echo.Group) {
	g.POST("", Sync)
}

// Sync rebuilds the tenant's matchers from the catalog source
func Sync(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := reg.Sync(ctx, tenantID); err != nil {
		return httperror.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "synced"})
}
