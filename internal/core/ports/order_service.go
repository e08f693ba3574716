package ports

import (
	"time"

	"github.com/desainin/order-manager/internal/core/domain"
)

// CreateOrderInput carries all data needed to create a new order.
// A zero ID asks the service to pick the next free id.
type CreateOrderInput struct {
	ID        int              `validate:"gte=0"`
	Name      string           `validate:"required"`
	Kind      domain.OrderKind `validate:"required,oneof=Logo Status Feed Asset Document Other"`
	Deadline  time.Time        `validate:"required"`
	Reference string
	Extras    string
}

// ModifyOrderInput carries the customer-editable fields of an order.
type ModifyOrderInput struct {
	Name      string           `validate:"required"`
	Kind      domain.OrderKind `validate:"required,oneof=Logo Status Feed Asset Document Other"`
	Deadline  time.Time        `validate:"required"`
	Reference string
	Extras    string
}

// UpdateOrderInput carries the editor-editable fields of an order.
type UpdateOrderInput struct {
	Status    domain.OrderStatus `validate:"required,oneof=Pending InProgress Completed Cancelled"`
	FinalLink string
}

// CustomerService defines what a customer can do with orders.
// Customers only see and change their own orders.
type CustomerService interface {
	CreateOrder(actor *domain.User, input CreateOrderInput) (*domain.Order, error)
	ModifyOrder(actor *domain.User, id int, input ModifyOrderInput) (*domain.Order, error)
	DeleteOrder(actor *domain.User, id int) error
	ListOrders(actor *domain.User) ([]*domain.Order, error)
}

// EditorService defines what an editor can do with orders.
type EditorService interface {
	ListOrders(actor *domain.User) ([]*domain.Order, error)
	AssignOrder(actor *domain.User, id int) (*domain.Order, error)
	UnassignOrder(actor *domain.User, id int) (*domain.Order, error)
	CompleteOrder(actor *domain.User, id int) (*domain.Order, error)
	AttachLink(actor *domain.User, id int, link string) (*domain.Order, error)
	UpdateOrder(actor *domain.User, id int, input UpdateOrderInput) (*domain.Order, error)
	DeleteOrder(actor *domain.User, id int) error
}
