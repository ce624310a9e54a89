package models

// EntityKind discriminates the catalog namespaces a phrase can resolve into.
// Aliases and matches never cross kinds.
type EntityKind string

const (
	EntityKindAccount    EntityKind = "account"
	EntityKindCategory   EntityKind = "category"
	EntityKindSupplier   EntityKind = "supplier"
	EntityKindIngredient EntityKind = "ingredient"
	EntityKindProduct    EntityKind = "product"
)

// EntityKinds lists every known kind in a stable order.
var EntityKinds = []EntityKind{
	EntityKindAccount,
	EntityKindCategory,
	EntityKindSupplier,
	EntityKindIngredient,
	EntityKindProduct,
}

// Valid reports whether the kind is one of the known catalog namespaces.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindAccount, EntityKindCategory, EntityKindSupplier, EntityKindIngredient, EntityKindProduct:
		return true
	}
	return false
}

// CanonicalEntity is one resolvable catalog item as known by the POS system.
// Entities are loaded wholesale at matcher construction and immutable for the
// session; a sync rebuilds the whole snapshot.
type CanonicalEntity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Unit        string `json:"unit,omitempty"`
	TenantLabel string `json:"tenant_label"`
}
