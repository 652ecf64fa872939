package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ozonms/fbosync/internal/core/domain"
)

// fakeSource serves a fixed order list in one page.
type fakeSource struct {
	orders  []domain.SupplyOrder
	items   map[string][]domain.BundleItem
	listErr error
	itemErr error
}

func (f *fakeSource) ListOrders(ctx context.Context, states []domain.OrderState, cursor string) ([]string, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	ids := make([]string, 0, len(f.orders))
	for _, o := range f.orders {
		ids = append(ids, o.ID)
	}
	return ids, "", nil
}

func (f *fakeSource) GetOrders(ctx context.Context, ids []string) ([]domain.SupplyOrder, error) {
	return f.orders, nil
}

func (f *fakeSource) BundleItems(ctx context.Context, bundleID string) ([]domain.BundleItem, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return f.items[bundleID], nil
}

// fakeDocs tracks documents by name, registering created documents so later
// lookups find them.
type fakeDocs struct {
	sales     map[string]*domain.DocRef
	transfers map[string]*domain.DocRef

	createdSales     []domain.SalesDocument
	createdTransfers []domain.TransferDocument

	salesCalls    int
	transferCalls int

	salesErr     error
	transferErrs []error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		sales:     make(map[string]*domain.DocRef),
		transfers: make(map[string]*domain.DocRef),
	}
}

func (f *fakeDocs) FindDocumentByName(ctx context.Context, kind domain.DocKind, name string) (*domain.DocRef, error) {
	switch kind {
	case domain.DocKindSales:
		return f.sales[name], nil
	case domain.DocKindTransfer:
		return f.transfers[name], nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func (f *fakeDocs) CreateSalesDocument(ctx context.Context, doc domain.SalesDocument) (domain.DocRef, error) {
	f.salesCalls++
	if f.salesErr != nil {
		return domain.DocRef{}, f.salesErr
	}
	f.createdSales = append(f.createdSales, doc)
	ref := domain.DocRef{ID: "co-" + doc.Name, Href: "https://erp.test/entity/customerorder/co-" + doc.Name}
	f.sales[doc.Name] = &ref
	return ref, nil
}

func (f *fakeDocs) CreateTransferDocument(ctx context.Context, doc domain.TransferDocument) (domain.DocRef, error) {
	f.transferCalls++
	if len(f.transferErrs) > 0 {
		err := f.transferErrs[0]
		f.transferErrs = f.transferErrs[1:]
		if err != nil {
			return domain.DocRef{}, err
		}
	}
	f.createdTransfers = append(f.createdTransfers, doc)
	ref := domain.DocRef{ID: "mv-" + doc.Name, Href: "https://erp.test/entity/move/mv-" + doc.Name}
	f.transfers[doc.Name] = &ref
	return ref, nil
}

// fakeCatalog serves fixed catalog fixtures keyed by kind and article.
type fakeCatalog struct {
	refs       map[string]domain.EntityRef
	entries    map[string]domain.CatalogEntry
	components map[string][]domain.BundleComponent

	findCalls int
	getCalls  int
	err       error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		refs:       make(map[string]domain.EntityRef),
		entries:    make(map[string]domain.CatalogEntry),
		components: make(map[string][]domain.BundleComponent),
	}
}

func (f *fakeCatalog) addProduct(article, href string, prices ...domain.PriceEntry) domain.EntityRef {
	ref := domain.EntityRef{Href: href, Type: "product"}
	f.refs["product:"+article] = ref
	f.entries[href] = domain.CatalogEntry{Ref: ref, Prices: prices}
	return ref
}

func (f *fakeCatalog) addVariant(href string, prices ...domain.PriceEntry) domain.EntityRef {
	ref := domain.EntityRef{Href: href, Type: "variant"}
	f.entries[href] = domain.CatalogEntry{Ref: ref, Prices: prices}
	return ref
}

func (f *fakeCatalog) addBundle(article, href string, comps ...domain.BundleComponent) domain.EntityRef {
	ref := domain.EntityRef{Href: href, Type: "bundle"}
	f.refs["bundle:"+article] = ref
	f.components[href] = comps
	return ref
}

func (f *fakeCatalog) FindEntryByArticle(ctx context.Context, kind domain.EntityKind, article string) (domain.EntityRef, bool, error) {
	if f.err != nil {
		return domain.EntityRef{}, false, f.err
	}
	f.findCalls++
	ref, ok := f.refs[string(kind)+":"+article]
	return ref, ok, nil
}

func (f *fakeCatalog) GetEntry(ctx context.Context, ref domain.EntityRef) (domain.CatalogEntry, error) {
	if f.err != nil {
		return domain.CatalogEntry{}, f.err
	}
	f.getCalls++
	entry, ok := f.entries[ref.Href]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("no entry for %s", ref.Href)
	}
	return entry, nil
}

func (f *fakeCatalog) BundleComponents(ctx context.Context, ref domain.EntityRef) ([]domain.BundleComponent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.components[ref.Href], nil
}

func salePrice(label string, kopecks int64) domain.PriceEntry {
	return domain.PriceEntry{Label: label, Value: decimal.NewFromInt(kopecks)}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
