// Package ozon implements the marketplace order source on top of the Ozon
// Seller API supply-order endpoints.
package ozon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/infra/httpx"
)

const (
	listPageSize = 100
	// The details endpoint accepts at most 50 order ids per call.
	detailsBatchSize = 50
	bundlePageSize   = 100
)

// Config holds connection settings for the Ozon Seller API.
type Config struct {
	BaseURL  string
	ClientID string
	APIKey   string
	RPS      float64
	Retry    httpx.RetryConfig
}

// Client calls the Ozon Seller API supply-order endpoints.
type Client struct {
	http *httpx.Client
}

// NewClient creates an Ozon Seller API client.
func NewClient(cfg Config) *Client {
	return &Client{
		http: httpx.New(httpx.Config{
			Name:    "ozon",
			BaseURL: cfg.BaseURL,
			Headers: map[string]string{
				"Client-Id": cfg.ClientID,
				"Api-Key":   cfg.APIKey,
			},
			RPS:   cfg.RPS,
			Retry: cfg.Retry,
		}),
	}
}

// ListOrders returns one page of supply order ids in the given states,
// together with the cursor for the next page. An empty cursor means the
// listing is exhausted.
func (c *Client) ListOrders(ctx context.Context, states []domain.OrderState, cursor string) ([]string, string, error) {
	req := listRequest{
		Filter: listFilter{States: stateStrings(states)},
		Limit:  listPageSize,
		LastID: cursor,
	}

	var resp listResponse
	if err := c.http.Post(ctx, "/v2/supply-order/list", req, &resp); err != nil {
		return nil, "", fmt.Errorf("list supply orders: %w", err)
	}

	ids := make([]string, 0, len(resp.OrderIDs))
	for _, id := range resp.OrderIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	next := ""
	if resp.HasNext && resp.LastID != "" {
		next = resp.LastID
	}
	return ids, next, nil
}

// GetOrders fetches full order details for the given ids, batching the
// underlying calls.
func (c *Client) GetOrders(ctx context.Context, ids []string) ([]domain.SupplyOrder, error) {
	orders := make([]domain.SupplyOrder, 0, len(ids))

	for start := 0; start < len(ids); start += detailsBatchSize {
		end := start + detailsBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		batch, err := c.getBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		orders = append(orders, batch...)
	}

	return orders, nil
}

func (c *Client) getBatch(ctx context.Context, ids []string) ([]domain.SupplyOrder, error) {
	req := detailsRequest{OrderIDs: make([]int64, 0, len(ids))}
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid order id %q: %w", id, err)
		}
		req.OrderIDs = append(req.OrderIDs, n)
	}

	var resp detailsResponse
	if err := c.http.Post(ctx, "/v2/supply-order/get", req, &resp); err != nil {
		return nil, fmt.Errorf("get supply order details: %w", err)
	}

	orders := make([]domain.SupplyOrder, 0, len(resp.Orders))
	for _, d := range resp.Orders {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

// BundleItems fetches every page of the bundle's line items. A page failing
// to load, or an empty page while more items are reported, fails the whole
// call; a partial item list must never reach document creation.
func (c *Client) BundleItems(ctx context.Context, bundleID string) ([]domain.BundleItem, error) {
	var items []domain.BundleItem
	offset := 0

	for {
		req := bundleRequest{
			BundleIDs: []string{bundleID},
			Limit:     bundlePageSize,
			Offset:    offset,
		}

		var resp bundleResponse
		if err := c.http.Post(ctx, "/v1/supply-order/bundle", req, &resp); err != nil {
			return nil, fmt.Errorf("fetch bundle %s at offset %d: %w", bundleID, offset, err)
		}

		for _, it := range resp.Items {
			if it.OfferID == "" {
				continue
			}
			items = append(items, domain.BundleItem{OfferID: it.OfferID, Quantity: it.count()})
		}

		if !resp.HasNext {
			break
		}
		if len(resp.Items) == 0 {
			return nil, fmt.Errorf("bundle %s: empty page at offset %d but has_next is set", bundleID, offset)
		}
		offset += len(resp.Items)
	}

	return items, nil
}

func stateStrings(states []domain.OrderState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, string(s))
	}
	return out
}
