// Package memory holds the in-process order and user collections. Nothing here
// is safe for concurrent use: the application has a single caller.
package memory

import (
	"fmt"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
)

// firstOrderID is the id handed to the first order of an empty manager.
const firstOrderID = 1001

var _ ports.OrderRepository = (*OrderManager)(nil)

// OrderManager keeps orders in insertion order with an id index on the side,
// so an id can appear at most once.
type OrderManager struct {
	orders []*domain.Order
	byID   map[int]*domain.Order
}

func NewOrderManager() *OrderManager {
	return &OrderManager{byID: make(map[int]*domain.Order)}
}

func (m *OrderManager) AddOrder(o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("add order: nil order")
	}
	if _, exists := m.byID[o.ID]; exists {
		return fmt.Errorf("add order %d: %w", o.ID, domain.ErrDuplicateOrder)
	}
	m.orders = append(m.orders, o)
	m.byID[o.ID] = o
	return nil
}

func (m *OrderManager) FindOrder(id int) (*domain.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (m *OrderManager) DeleteOrder(id int) bool {
	if _, ok := m.byID[id]; !ok {
		return false
	}
	delete(m.byID, id)

	kept := m.orders[:0]
	for _, o := range m.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	// drop the stale tail so removed orders can be collected
	for i := len(kept); i < len(m.orders); i++ {
		m.orders[i] = nil
	}
	m.orders = kept
	return true
}

// Orders returns a fresh slice; reordering it does not affect the manager.
func (m *OrderManager) Orders() []*domain.Order {
	out := make([]*domain.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

func (m *OrderManager) Len() int { return len(m.orders) }

// NextID returns one past the highest id in use.
func (m *OrderManager) NextID() int {
	next := firstOrderID
	for _, o := range m.orders {
		if o.ID >= next {
			next = o.ID + 1
		}
	}
	return next
}

// Reset drops every order.
func (m *OrderManager) Reset() {
	m.orders = nil
	m.byID = make(map[int]*domain.Order)
}
