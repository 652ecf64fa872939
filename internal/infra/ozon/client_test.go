package ozon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ozonms/fbosync/internal/core/domain"
	"github.com/ozonms/fbosync/internal/infra/httpx"
)

func testRetry() httpx.RetryConfig {
	return httpx.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestClient_ListOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/supply-order/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		if got := r.Header.Get("Client-Id"); got != "12345" {
			t.Errorf("expected Client-Id 12345, got %q", got)
		}
		if got := r.Header.Get("Api-Key"); got != "key" {
			t.Errorf("expected Api-Key key, got %q", got)
		}

		var req listRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if len(req.Filter.States) == 0 {
			t.Error("expected states filter in request")
		}

		if req.LastID == "" {
			_ = json.NewEncoder(w).Encode(listResponse{
				OrderIDs: []int64{101, 102},
				LastID:   "cur-2",
				HasNext:  true,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse{OrderIDs: []int64{103}})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "12345", APIKey: "key", Retry: testRetry()})

	ids, next, err := c.ListOrders(context.Background(), domain.ActiveStates, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "101" || ids[1] != "102" {
		t.Errorf("expected ids [101 102], got %v", ids)
	}
	if next != "cur-2" {
		t.Errorf("expected cursor cur-2, got %q", next)
	}

	ids, next, err = c.ListOrders(context.Background(), domain.ActiveStates, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "103" {
		t.Errorf("expected ids [103], got %v", ids)
	}
	if next != "" {
		t.Errorf("expected empty cursor at end, got %q", next)
	}
}

func TestClient_GetOrders_Batches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/supply-order/get" {
			t.Errorf("unexpected path %s", r.URL.Path)
			return
		}
		calls.Add(1)

		var req detailsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if len(req.OrderIDs) > detailsBatchSize {
			t.Errorf("batch of %d exceeds limit %d", len(req.OrderIDs), detailsBatchSize)
		}

		resp := detailsResponse{}
		for _, id := range req.OrderIDs {
			resp.Orders = append(resp.Orders, orderDetails{
				OrderID:     id,
				OrderNumber: "N-1",
				State:       string(domain.OrderStateReadyToSupply),
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = "1"
	}

	orders, err := c.GetOrders(context.Background(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 60 {
		t.Errorf("expected 60 orders, got %d", len(orders))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 batched calls for 60 ids, got %d", got)
	}
}

func TestClient_GetOrders_ParsesDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"orders": [{
				"order_id": 777,
				"order_number": "OZN-777",
				"state": "ORDER_STATE_READY_TO_SUPPLY",
				"timeslot": {"value": {"timeslot": {"from": "2026-03-05T10:30:00Z"}}},
				"supplies": [{
					"storage_warehouse": {"warehouse_id": 42, "name": "KHORUGVINO"},
					"content": {"bundle_id": "b-abc"}
				}]
			}]
		}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	orders, err := c.GetOrders(context.Background(), []string{"777"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	o := orders[0]
	if o.ID != "777" || o.Number != "OZN-777" {
		t.Errorf("unexpected identity: %+v", o)
	}
	if o.State != domain.OrderStateReadyToSupply {
		t.Errorf("unexpected state %s", o.State)
	}
	want := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	if !o.TimeslotFrom.Equal(want) {
		t.Errorf("expected timeslot %v, got %v", want, o.TimeslotFrom)
	}
	if o.BundleID != "b-abc" {
		t.Errorf("expected bundle b-abc, got %q", o.BundleID)
	}
	if o.Warehouse != "KHORUGVINO" {
		t.Errorf("expected warehouse KHORUGVINO, got %q", o.Warehouse)
	}
}

func TestClient_GetOrders_MissingTimeslot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"orders": [
				{"order_id": 1, "order_number": "A", "state": "ORDER_STATE_IN_TRANSIT"},
				{"order_id": 2, "order_number": "B", "state": "ORDER_STATE_IN_TRANSIT",
				 "timeslot": {"value": {"timeslot": {"from": "not-a-date"}}}}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	orders, err := c.GetOrders(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range orders {
		if !o.TimeslotFrom.IsZero() {
			t.Errorf("order %s: expected zero timeslot, got %v", o.ID, o.TimeslotFrom)
		}
	}
}

func TestClient_BundleItems_Paginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/supply-order/bundle" {
			t.Errorf("unexpected path %s", r.URL.Path)
			return
		}

		var req bundleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}
		if len(req.BundleIDs) != 1 || req.BundleIDs[0] != "b-1" {
			t.Errorf("expected bundle_ids [b-1], got %v", req.BundleIDs)
		}

		qty2 := 2.0
		qty3 := 3.4
		if req.Offset == 0 {
			_ = json.NewEncoder(w).Encode(bundleResponse{
				Items: []bundleItem{
					{OfferID: "SKU-1", Quantity: &qty2},
					{OfferID: "", Quantity: &qty2},
				},
				HasNext: true,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(bundleResponse{
			Items: []bundleItem{
				{OfferID: "SKU-2", Quantity: &qty3},
				{OfferID: "SKU-3"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	items, err := c.BundleItems(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.BundleItem{
		{OfferID: "SKU-1", Quantity: 2},
		{OfferID: "SKU-2", Quantity: 3},
		{OfferID: "SKU-3", Quantity: 1},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %v", len(want), len(items), items)
	}
	for i, it := range items {
		if it != want[i] {
			t.Errorf("item %d: expected %+v, got %+v", i, want[i], it)
		}
	}
}

func TestClient_BundleItems_EmptyPageWithMoreFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req bundleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req.Offset == 0 {
			qty := 1.0
			_ = json.NewEncoder(w).Encode(bundleResponse{
				Items:   []bundleItem{{OfferID: "SKU-1", Quantity: &qty}},
				HasNext: true,
			})
			return
		}
		// Contradictory page: nothing served while claiming more remain.
		_ = json.NewEncoder(w).Encode(bundleResponse{HasNext: true})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	if _, err := c.BundleItems(context.Background(), "b-1"); err == nil {
		t.Fatal("expected error for a truncated item list, got nil")
	}
}

func TestClient_BundleItems_FailedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req bundleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req.Offset == 0 {
			qty := 1.0
			_ = json.NewEncoder(w).Encode(bundleResponse{
				Items:   []bundleItem{{OfferID: "SKU-1", Quantity: &qty}},
				HasNext: true,
			})
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ClientID: "x", APIKey: "y", Retry: testRetry()})

	if _, err := c.BundleItems(context.Background(), "b-1"); err == nil {
		t.Fatal("expected error when a page fails, got nil")
	}
}
