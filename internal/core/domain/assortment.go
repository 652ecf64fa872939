package domain

import (
	"path"
	"strings"

	"github.com/shopspring/decimal"
)

// EntityKind is a MoySklad catalog entity kind.
type EntityKind string

const (
	KindProduct EntityKind = "product"
	KindVariant EntityKind = "variant"
	KindBundle  EntityKind = "bundle"
)

// EntityRef points at a MoySklad entity. Href is the canonical API URL of the
// entity, Type its metadata type; together they form the "meta" object the
// API expects on document positions.
type EntityRef struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// EntityID extracts the entity id from the href (the trailing path segment).
func (r EntityRef) EntityID() string {
	return path.Base(strings.TrimRight(r.Href, "/"))
}

// PriceEntry is one entry of a catalog entity's sale-price list, as returned
// by the ERP. Value is in kopecks but may carry a fractional part.
type PriceEntry struct {
	Label string
	Value decimal.Decimal
}

// CatalogEntry is a full catalog record with its price list; picking a unit
// price out of the list is the resolver's policy, not the client's.
type CatalogEntry struct {
	Ref    EntityRef
	Prices []PriceEntry
}

// BundleComponent is one raw component row of a catalog bundle. Ref may be
// incomplete when the catalog row carries no assortment meta; the resolver
// rejects such bundles.
type BundleComponent struct {
	Ref      EntityRef
	Quantity float64
}

// RecordKind discriminates cached assortment records.
type RecordKind string

const (
	RecordProduct RecordKind = "product"
	RecordBundle  RecordKind = "bundle"
)

// Component is one constituent of a bundle record: the component entity, how
// many units one bundle unit expands to, and the component's own unit price
// in kopecks.
type Component struct {
	Ref      EntityRef `json:"ref"`
	Quantity int       `json:"quantity"`
	Price    int64     `json:"price"`
}

// AssortmentRecord is the cached resolution of one normalized seller article:
// either a plain product with its price, or a bundle with priced components.
// Records are immutable for the process lifetime once cached.
type AssortmentRecord struct {
	Article    string      `json:"article"`
	Kind       RecordKind  `json:"kind"`
	Ref        EntityRef   `json:"ref"`
	Price      int64       `json:"price,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// LineItem is a resolved document position: an assortment entity, a quantity
// and a unit price in kopecks.
type LineItem struct {
	Ref      EntityRef
	Quantity int
	Price    int64
}

// Expand turns an ordered quantity of this record into document line items.
// A product yields a single line; a bundle yields one line per component with
// quantity scaled by the component's per-bundle quantity.
func (r AssortmentRecord) Expand(quantity int) []LineItem {
	if r.Kind == RecordProduct {
		return []LineItem{{Ref: r.Ref, Quantity: quantity, Price: r.Price}}
	}
	items := make([]LineItem, 0, len(r.Components))
	for _, c := range r.Components {
		items = append(items, LineItem{
			Ref:      c.Ref,
			Quantity: quantity * c.Quantity,
			Price:    c.Price,
		})
	}
	return items
}
