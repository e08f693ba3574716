package ports

import "github.com/desainin/order-manager/internal/core/domain"

// OrderRepository owns every order record. Returned pointers are live: callers
// may mutate them but must not keep them across a delete.
type OrderRepository interface {
	// AddOrder appends o. An id already present is rejected with ErrDuplicateOrder.
	AddOrder(o *domain.Order) error
	FindOrder(id int) (*domain.Order, error)
	// DeleteOrder removes the order with the given id and reports whether it existed.
	DeleteOrder(id int) bool
	// Orders returns all orders in insertion order.
	Orders() []*domain.Order
	// NextID returns the id a newly created order should take.
	NextID() int
}
