// Package moysklad implements the ERP document sink and catalog on top of
// the MoySklad remap 1.2 JSON API.
package moysklad

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/infra/httpx"
)

const componentPageSize = 100

// Config holds connection settings and the fixed entity references attached
// to every created document.
type Config struct {
	BaseURL string
	Token   string
	RPS     float64
	Retry   httpx.RetryConfig

	OrganizationID string
	AgentID        string
	// StoreID is the fulfillment store: the sales store and the transfer
	// destination.
	StoreID string
	// SourceStoreID is the warehouse transfers draw from.
	SourceStoreID  string
	SalesChannelID string
	// OrderStateID is the customerorder workflow state set on creation.
	OrderStateID string
}

// Client calls the MoySklad JSON API.
type Client struct {
	http *httpx.Client
	base string
	cfg  Config
}

// NewClient creates a MoySklad API client.
func NewClient(cfg Config) *Client {
	return &Client{
		http: httpx.New(httpx.Config{
			Name:    "moysklad",
			BaseURL: cfg.BaseURL,
			Headers: map[string]string{
				"Authorization": "Bearer " + cfg.Token,
				"Accept":        "application/json;charset=utf-8",
			},
			RPS:   cfg.RPS,
			Retry: cfg.Retry,
		}),
		base: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:  cfg,
	}
}

func (c *Client) entityMeta(entity, id string) metaEnvelope {
	return metaEnvelope{Meta: NewMeta(fmt.Sprintf("%s/entity/%s/%s", c.base, entity, id), entity)}
}

func docEntity(kind domain.DocKind) (string, error) {
	switch kind {
	case domain.DocKindSales:
		return "customerorder", nil
	case domain.DocKindTransfer:
		return "move", nil
	}
	return "", fmt.Errorf("unknown document kind %q", kind)
}

// FindDocumentByName looks up a document by its exact name. Document names
// are the sync's idempotency keys, so at most one match can exist; a nil
// result means no document carries the name.
func (c *Client) FindDocumentByName(ctx context.Context, kind domain.DocKind, name string) (*domain.DocRef, error) {
	entity, err := docEntity(kind)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("filter", "name="+name)
	query.Set("limit", "1")
	query.Set("offset", "0")

	var resp rowList
	if err := c.http.Get(ctx, "/entity/"+entity, query, &resp); err != nil {
		return nil, fmt.Errorf("find %s by name %q: %w", entity, name, err)
	}
	if len(resp.Rows) == 0 {
		return nil, nil
	}

	row := resp.Rows[0]
	return &domain.DocRef{ID: row.ID, Href: row.Meta.Href}, nil
}

// CreateSalesDocument creates a customerorder carrying the configured fixed
// references and the resolved positions.
func (c *Client) CreateSalesDocument(ctx context.Context, doc domain.SalesDocument) (domain.DocRef, error) {
	body := customerOrderBody{
		Name:         doc.Name,
		Description:  doc.Description,
		Organization: c.entityMeta("organization", c.cfg.OrganizationID),
		Agent:        c.entityMeta("counterparty", c.cfg.AgentID),
		Store:        c.entityMeta("store", c.cfg.StoreID),
		SalesChannel: c.entityMeta("saleschannel", c.cfg.SalesChannelID),
		State: metaEnvelope{Meta: NewMeta(
			fmt.Sprintf("%s/entity/customerorder/metadata/states/%s", c.base, c.cfg.OrderStateID),
			"state",
		)},
		Positions: positions(doc.Items),
	}
	if !doc.PlannedAt.IsZero() {
		m := Moment(doc.PlannedAt)
		body.DeliveryPlannedMoment = &m
	}

	var resp createdResponse
	if err := c.http.Post(ctx, "/entity/customerorder", body, &resp); err != nil {
		return domain.DocRef{}, fmt.Errorf("create customerorder %q: %w", doc.Name, err)
	}
	return domain.DocRef{ID: resp.ID, Href: resp.Meta.Href}, nil
}

// CreateTransferDocument creates a move from the source warehouse to the
// fulfillment store, linked to the sales document. A non-binding document is
// created with applicable=false so it does not reserve stock.
func (c *Client) CreateTransferDocument(ctx context.Context, doc domain.TransferDocument) (domain.DocRef, error) {
	body := moveBody{
		Name:         doc.Name,
		Description:  doc.Description,
		Organization: c.entityMeta("organization", c.cfg.OrganizationID),
		SourceStore:  c.entityMeta("store", c.cfg.SourceStoreID),
		TargetStore:  c.entityMeta("store", c.cfg.StoreID),
		Positions:    positions(doc.Items),
	}
	if doc.SalesRef.Href != "" {
		body.CustomerOrder = &metaEnvelope{Meta: NewMeta(doc.SalesRef.Href, "customerorder")}
	}
	if doc.NonBinding {
		applicable := false
		body.Applicable = &applicable
	}

	var resp createdResponse
	if err := c.http.Post(ctx, "/entity/move", body, &resp); err != nil {
		return domain.DocRef{}, fmt.Errorf("create move %q: %w", doc.Name, err)
	}
	return domain.DocRef{ID: resp.ID, Href: resp.Meta.Href}, nil
}

// FindEntryByArticle looks up a catalog entity of the given kind by its exact
// article. The bool result reports whether a match exists.
func (c *Client) FindEntryByArticle(ctx context.Context, kind domain.EntityKind, article string) (domain.EntityRef, bool, error) {
	query := url.Values{}
	query.Set("filter", "article="+article)
	query.Set("limit", "1")
	query.Set("offset", "0")

	var resp rowList
	if err := c.http.Get(ctx, "/entity/"+string(kind), query, &resp); err != nil {
		return domain.EntityRef{}, false, fmt.Errorf("find %s by article %q: %w", kind, article, err)
	}
	if len(resp.Rows) == 0 {
		return domain.EntityRef{}, false, nil
	}

	row := resp.Rows[0]
	return domain.EntityRef{Href: row.Meta.Href, Type: row.Meta.Type}, true, nil
}

// GetEntry fetches the full catalog record behind a reference, including its
// sale-price list.
func (c *Client) GetEntry(ctx context.Context, ref domain.EntityRef) (domain.CatalogEntry, error) {
	var row entityRow
	path := fmt.Sprintf("/entity/%s/%s", ref.Type, ref.EntityID())
	if err := c.http.Get(ctx, path, nil, &row); err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("get %s %s: %w", ref.Type, ref.EntityID(), err)
	}

	entry := domain.CatalogEntry{
		Ref:    domain.EntityRef{Href: row.Meta.Href, Type: row.Meta.Type},
		Prices: make([]domain.PriceEntry, 0, len(row.SalePrices)),
	}
	for _, p := range row.SalePrices {
		entry.Prices = append(entry.Prices, domain.PriceEntry{Label: p.label(), Value: p.Value})
	}
	return entry, nil
}

// BundleComponents fetches every page of a bundle's component rows. A page
// failing to load, or pagination drying up short of the declared row count,
// fails the whole call so a partial component list never reaches expansion.
func (c *Client) BundleComponents(ctx context.Context, ref domain.EntityRef) ([]domain.BundleComponent, error) {
	path := fmt.Sprintf("/entity/bundle/%s/components", ref.EntityID())

	var components []domain.BundleComponent
	offset := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(componentPageSize))
		query.Set("offset", strconv.Itoa(offset))

		var resp componentList
		if err := c.http.Get(ctx, path, query, &resp); err != nil {
			return nil, fmt.Errorf("get bundle %s components at offset %d: %w", ref.EntityID(), offset, err)
		}

		for _, row := range resp.Rows {
			comp := domain.BundleComponent{Quantity: row.Quantity}
			if row.Assortment != nil {
				comp.Ref = domain.EntityRef{Href: row.Assortment.Meta.Href, Type: row.Assortment.Meta.Type}
			}
			components = append(components, comp)
		}

		offset += len(resp.Rows)
		if offset >= resp.Meta.Size {
			break
		}
		if len(resp.Rows) == 0 {
			return nil, fmt.Errorf("bundle %s components: got %d of %d rows", ref.EntityID(), offset, resp.Meta.Size)
		}
	}

	return components, nil
}

func positions(items []domain.LineItem) []position {
	out := make([]position, 0, len(items))
	for _, it := range items {
		out = append(out, position{
			Quantity:   it.Quantity,
			Price:      it.Price,
			Assortment: metaEnvelope{Meta: NewMeta(it.Ref.Href, it.Ref.Type)},
		})
	}
	return out
}
