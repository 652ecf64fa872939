package domain

import (
	"encoding/json"
	"time"
)

// MemoryEntry is the last known sync state of one supply order.
type MemoryEntry struct {
	OrderNumber   string     `json:"order_number"`
	State         OrderState `json:"state"`
	CustomerOrder *DocRef    `json:"customer_order,omitempty"`
	Move          *DocRef    `json:"move,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Memory maps supply-order ids to their last known sync state. It is the only
// state that survives restarts: the engine mutates it during a pass and the
// runner persists it through a state store afterwards. Not safe for
// concurrent use; passes never overlap.
type Memory struct {
	entries map[string]MemoryEntry
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]MemoryEntry)}
}

// Get returns the entry for an order id.
func (m *Memory) Get(orderID string) (MemoryEntry, bool) {
	e, ok := m.entries[orderID]
	return e, ok
}

// Put stores the entry for an order id, replacing any previous one.
func (m *Memory) Put(orderID string, e MemoryEntry) {
	m.entries[orderID] = e
}

// Forget drops the entry for an order id. Dropping an unknown id is a no-op.
func (m *Memory) Forget(orderID string) {
	delete(m.entries, orderID)
}

// Len returns the number of tracked orders.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Snapshot returns a copy of the tracked entries, for persistence.
func (m *Memory) Snapshot() map[string]MemoryEntry {
	out := make(map[string]MemoryEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the memory as a plain order-id to entry object.
func (m *Memory) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

// UnmarshalJSON decodes the order-id to entry object form.
func (m *Memory) UnmarshalJSON(data []byte) error {
	entries := make(map[string]MemoryEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.entries = entries
	return nil
}
