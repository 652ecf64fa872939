package domain

import "time"

// DocKind distinguishes the two document types the sync creates.
type DocKind string

const (
	DocKindSales    DocKind = "sales"
	DocKindTransfer DocKind = "transfer"
)

// DocRef identifies a created ERP document.
type DocRef struct {
	ID   string `json:"id,omitempty"`
	Href string `json:"href,omitempty"`
}

// SalesDocument holds the order-specific fields of a sales document. The
// fixed organization, counterparty and store references are attached by the
// ERP client from its configuration.
type SalesDocument struct {
	Name        string
	Description string
	// PlannedAt is the delivery timeslot; the zero time omits the field.
	PlannedAt time.Time
	Items     []LineItem
}

// TransferDocument holds the order-specific fields of an inventory transfer
// document linked to a sales document.
type TransferDocument struct {
	Name        string
	Description string
	SalesRef    DocRef
	// NonBinding creates the document without reserving stock. Set on the
	// one retry after a stock-insufficiency failure.
	NonBinding bool
	Items      []LineItem
}
