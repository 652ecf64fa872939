package sync

import (
	"context"

	"github.com/ozonms/fbosync/internal/core/domain"
)

// OrderSource lists marketplace supply orders and their bundle contents.
type OrderSource interface {
	// ListOrders returns one page of order ids in the given states plus the
	// cursor for the next page; an empty cursor ends the listing
	ListOrders(ctx context.Context, states []domain.OrderState, cursor string) ([]string, string, error)

	// GetOrders fetches full details for the given order ids
	GetOrders(ctx context.Context, ids []string) ([]domain.SupplyOrder, error)

	// BundleItems fetches all line items of an order's bundle
	BundleItems(ctx context.Context, bundleID string) ([]domain.BundleItem, error)
}

// Documents finds and creates ERP documents. Document names are the
// idempotency keys: one name never maps to more than one document.
type Documents interface {
	// FindDocumentByName returns the document carrying the name, or nil
	FindDocumentByName(ctx context.Context, kind domain.DocKind, name string) (*domain.DocRef, error)

	// CreateSalesDocument creates a sales document
	CreateSalesDocument(ctx context.Context, doc domain.SalesDocument) (domain.DocRef, error)

	// CreateTransferDocument creates a transfer document linked to a sales document
	CreateTransferDocument(ctx context.Context, doc domain.TransferDocument) (domain.DocRef, error)
}

// Catalog looks up ERP catalog entities for article resolution.
type Catalog interface {
	// FindEntryByArticle looks up an entity of the given kind by exact article
	FindEntryByArticle(ctx context.Context, kind domain.EntityKind, article string) (domain.EntityRef, bool, error)

	// GetEntry fetches the full record behind a reference, with its price list
	GetEntry(ctx context.Context, ref domain.EntityRef) (domain.CatalogEntry, error)

	// BundleComponents fetches all component rows of a catalog bundle
	BundleComponents(ctx context.Context, ref domain.EntityRef) ([]domain.BundleComponent, error)
}
