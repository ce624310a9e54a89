// Package match exposes phrase resolution over HTTP.
package match

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/appcontext"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/events"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/matcher"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/metrics"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/registry"
)

// MatchRequest represents a phrase resolution request. Tenants optionally
// lists additional tenants whose catalogs are merged in; the header tenant is
// the primary for tie-breaking.
type MatchRequest struct {
	Phrase     string   `json:"phrase" validate:"required"`
	EntityKind string   `json:"entity_kind" validate:"required"`
	Cutoff     *float64 `json:"cutoff,omitempty"`
	Tenants    []string `json:"tenants,omitempty"`
}

// MatchResponse carries the best match, or null when nothing cleared the
// cutoff. No match is HTTP 200; the caller asks the human, not the operator.
type MatchResponse struct {
	Match *models.MatchResult `json:"match"`
}

// CandidatesRequest represents a ranked-candidates request
type CandidatesRequest struct {
	Phrase     string   `json:"phrase" validate:"required"`
	EntityKind string   `json:"entity_kind" validate:"required"`
	Limit      int      `json:"limit,omitempty"`
	Cutoff     *float64 `json:"cutoff,omitempty"`
	Tenants    []string `json:"tenants,omitempty"`
}

// CandidatesResponse carries the ranked candidate list for disambiguation
type CandidatesResponse struct {
	Candidates []models.MatchResult `json:"candidates"`
}

const defaultCandidateLimit = 5

// Register registers match routes
func Register(g *echo.Group) {
	g.POST("", Match)
	g.POST("/candidates", Candidates)
}

// Match resolves a phrase to the best catalog entity
func Match(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	kind := models.EntityKind(req.EntityKind)
	if req.Phrase == "" || !kind.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "phrase and a valid entity_kind are required")
	}

	ctx, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	start := time.Now()
	result, err := resolve(c, reg, tenantID, kind, req.Tenants, req.Cutoff, req.Phrase)
	if err != nil {
		return err
	}

	outcome := "no_match"
	if result != nil {
		outcome = "match"
		if result.Score == models.ExactScore {
			outcome = "exact"
		}
	}
	metrics.RecordMatch(tenantID, string(kind), outcome, time.Since(start).Seconds())

	return c.JSON(http.StatusOK, MatchResponse{Match: result})
}

// Candidates returns the ranked candidate list used for human disambiguation
func Candidates(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req CandidatesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	kind := models.EntityKind(req.EntityKind)
	if req.Phrase == "" || !kind.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "phrase and a valid entity_kind are required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	ctx, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	m, err := getMatcher(c, reg, tenantID, kind, req.Tenants)
	if err != nil {
		return err
	}

	cutoff := matcher.DefaultCutoff(kind)
	if req.Cutoff != nil {
		cutoff = *req.Cutoff
	}

	candidates, err := m.TopMatches(ctx, req.Phrase, limit, cutoff)
	if err != nil {
		return err
	}
	if candidates == nil {
		candidates = []models.MatchResult{}
	}

	if len(candidates) > 1 {
		ctx, emitter, emitterErr := ectoinject.GetContext[*events.Emitter](ctx)
		if emitterErr == nil && emitter != nil {
			_ = emitter.EmitMatchAmbiguous(ctx, tenantID, req.Phrase, kind, len(candidates))
		}
	}

	return c.JSON(http.StatusOK, CandidatesResponse{Candidates: candidates})
}

func getMatcher(c echo.Context, reg *registry.Registry, tenantID string, kind models.EntityKind, extraTenants []string) (*matcher.Matcher, error) {
	ctx := c.Request().Context()
	tenants := append([]string{tenantID}, extraTenants...)

	m, err := reg.GetMerged(ctx, tenants, kind)
	if err != nil {
		// The tenant's catalog could not be loaded; no meaningful matching
		// can occur for it until the source recovers.
		return nil, httperror.NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}
	return m, nil
}

func resolve(c echo.Context, reg *registry.Registry, tenantID string, kind models.EntityKind, extraTenants []string, cutoff *float64, phrase string) (*models.MatchResult, error) {
	ctx := c.Request().Context()

	m, err := getMatcher(c, reg, tenantID, kind, extraTenants)
	if err != nil {
		return nil, err
	}

	if len(extraTenants) > 0 {
		return m.MatchWithPriority(ctx, phrase, tenantID)
	}

	if cutoff != nil {
		return m.MatchWithCutoff(ctx, phrase, *cutoff)
	}

	return m.Match(ctx, phrase)
}
