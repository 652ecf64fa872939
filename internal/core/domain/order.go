package domain

import "time"

// OrderState is the supply-order lifecycle state as reported by the Ozon
// Seller API. The raw state strings travel through memory and logs unchanged.
type OrderState string

const (
	OrderStateReadyToSupply        OrderState = "ORDER_STATE_READY_TO_SUPPLY"
	OrderStateAcceptedAtWarehouse  OrderState = "ORDER_STATE_ACCEPTED_AT_SUPPLY_WAREHOUSE"
	OrderStateInTransit            OrderState = "ORDER_STATE_IN_TRANSIT"
	OrderStateAcceptanceAtStorage  OrderState = "ORDER_STATE_ACCEPTANCE_AT_STORAGE_WAREHOUSE"
	OrderStateReportsConfirmation  OrderState = "ORDER_STATE_REPORTS_CONFIRMATION_AWAITING"
	OrderStateCompleted            OrderState = "ORDER_STATE_COMPLETED"
	OrderStateOverdue              OrderState = "ORDER_STATE_OVERDUE"
	OrderStateCancelled            OrderState = "ORDER_STATE_CANCELLED"
	OrderStateRejectedAtWarehouse  OrderState = "ORDER_STATE_REJECTED_AT_SUPPLY_WAREHOUSE"
	OrderStateReportRejected       OrderState = "ORDER_STATE_REPORT_REJECTED"
)

// ActiveStates are the states a supply order moves through while it is still
// expected to reach the marketplace warehouse.
var ActiveStates = []OrderState{
	OrderStateReadyToSupply,
	OrderStateAcceptedAtWarehouse,
	OrderStateInTransit,
	OrderStateAcceptanceAtStorage,
	OrderStateReportsConfirmation,
	OrderStateCompleted,
	OrderStateOverdue,
}

// CancelledStates are terminal states after which the order will never be
// supplied; any local tracking for such an order must be dropped.
var CancelledStates = map[OrderState]bool{
	OrderStateCancelled:           true,
	OrderStateRejectedAtWarehouse: true,
	OrderStateReportRejected:      true,
}

// Cancelled reports whether the state is one of the terminal cancelled states.
func (s OrderState) Cancelled() bool {
	return CancelledStates[s]
}

// WatchedStates returns every state the sync asks the marketplace for: the
// active states plus the cancelled ones, which must still be observed so
// local tracking can be dropped.
func WatchedStates() []OrderState {
	states := make([]OrderState, 0, len(ActiveStates)+len(CancelledStates))
	states = append(states, ActiveStates...)
	states = append(states,
		OrderStateCancelled,
		OrderStateRejectedAtWarehouse,
		OrderStateReportRejected,
	)
	return states
}

// SupplyOrder is a marketplace supply order as the sync engine sees it.
// TimeslotFrom is the zero time when the order has no (or an unparseable)
// delivery timeslot; such orders are skipped until the source revises them.
type SupplyOrder struct {
	ID           string
	Number       string
	State        OrderState
	TimeslotFrom time.Time
	BundleID     string
	Warehouse    string
}

// BundleItem is one line of a supply order's item bundle: a seller SKU and
// the ordered quantity.
type BundleItem struct {
	OfferID  string
	Quantity int
}
