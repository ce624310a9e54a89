package models

// Match origins. An exact or fuzzy alias hit reports OriginAlias; a hit on
// the catalog display name reports OriginName.
const (
	OriginAlias = "alias"
	OriginName  = "name"
)

// MatchResult is the matcher's output for a single candidate. Score is on a
// 0-100 scale; exactly 100 means an exact phrase or alias hit and needs no
// disambiguation. Anything below 100 is a fuzzy estimate.
type MatchResult struct {
	EntityID    int64   `json:"entity_id"`
	EntityName  string  `json:"entity_name"`
	Unit        string  `json:"unit,omitempty"`
	Score       float64 `json:"score"`
	TenantLabel string  `json:"tenant_label"`
	Origin      string  `json:"origin"`
}

// ExactScore is the score assigned to exact alias and exact name hits.
const ExactScore = 100.0
