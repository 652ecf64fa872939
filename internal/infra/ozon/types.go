package ozon

import (
	"math"
	"strconv"
	"time"

	"github.com/ozonms/fbosync/internal/core/domain"
)

type listRequest struct {
	Filter listFilter `json:"filter"`
	Limit  int        `json:"limit"`
	LastID string     `json:"last_id,omitempty"`
}

type listFilter struct {
	States []string `json:"states"`
}

type listResponse struct {
	OrderIDs []int64 `json:"supply_order_ids"`
	LastID   string  `json:"last_id"`
	HasNext  bool    `json:"has_next"`
}

type detailsRequest struct {
	OrderIDs []int64 `json:"order_ids"`
}

type detailsResponse struct {
	Orders []orderDetails `json:"orders"`
}

type orderDetails struct {
	OrderID     int64         `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	State       string        `json:"state"`
	Timeslot    *timeslotInfo `json:"timeslot"`
	Supplies    []supplyInfo  `json:"supplies"`
}

// timeslotInfo mirrors the deeply nested timeslot envelope the API returns.
type timeslotInfo struct {
	Value struct {
		Timeslot struct {
			From string `json:"from"`
		} `json:"timeslot"`
	} `json:"value"`
}

type supplyInfo struct {
	StorageWarehouse *warehouseInfo `json:"storage_warehouse"`
	Content          *supplyContent `json:"content"`
}

type warehouseInfo struct {
	WarehouseID int64  `json:"warehouse_id"`
	Name        string `json:"name"`
}

type supplyContent struct {
	BundleID string `json:"bundle_id"`
}

func (d orderDetails) toDomain() domain.SupplyOrder {
	order := domain.SupplyOrder{
		ID:     strconv.FormatInt(d.OrderID, 10),
		Number: d.OrderNumber,
		State:  domain.OrderState(d.State),
	}

	// A missing or malformed timeslot leaves the zero time; the engine treats
	// that as "no timeslot".
	if d.Timeslot != nil {
		if from := d.Timeslot.Value.Timeslot.From; from != "" {
			if t, err := time.Parse(time.RFC3339, from); err == nil {
				order.TimeslotFrom = t.UTC()
			}
		}
	}

	if len(d.Supplies) > 0 {
		first := d.Supplies[0]
		if first.Content != nil {
			order.BundleID = first.Content.BundleID
		}
		if w := first.StorageWarehouse; w != nil {
			switch {
			case w.Name != "":
				order.Warehouse = w.Name
			case w.WarehouseID != 0:
				order.Warehouse = strconv.FormatInt(w.WarehouseID, 10)
			}
		}
	}

	return order
}

type bundleRequest struct {
	BundleIDs []string `json:"bundle_ids"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

type bundleResponse struct {
	Items   []bundleItem `json:"items"`
	HasNext bool         `json:"has_next"`
}

type bundleItem struct {
	OfferID  string   `json:"offer_id"`
	Quantity *float64 `json:"quantity"`
}

// count rounds the declared quantity to the nearest integer; a missing
// quantity means one unit.
func (b bundleItem) count() int {
	if b.Quantity == nil {
		return 1
	}
	return int(math.Round(*b.Quantity))
}
