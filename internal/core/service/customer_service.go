package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/metrics"
)

// CustomerService lets customers author and edit their own orders.
type CustomerService struct {
	orders   ports.OrderRepository
	validate *inputValidator
	logger   zerolog.Logger
}

func NewCustomerService(orders ports.OrderRepository, logger zerolog.Logger) *CustomerService {
	return &CustomerService{orders: orders, validate: newInputValidator(), logger: logger}
}

// CreateOrder creates a pending order owned by actor. A zero input.ID takes
// the next free id.
func (s *CustomerService) CreateOrder(actor *domain.User, input ports.CreateOrderInput) (*domain.Order, error) {
	if err := requireRole(actor, domain.RoleCustomer); err != nil {
		return nil, reject("create order", err)
	}
	if err := s.validate.Validate(input); err != nil {
		return nil, reject("create order", err)
	}

	id := input.ID
	if id == 0 {
		id = s.orders.NextID()
	}

	order := domain.NewOrder(id, input.Name, input.Kind, input.Deadline)
	order.Reference = input.Reference
	order.Extras = input.Extras
	order.CustomerID = actor.ID

	if err := s.orders.AddOrder(order); err != nil {
		s.logger.Error().Err(err).Int("order_id", id).Msg("failed to create order")
		return nil, err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(order.Kind)).Inc()
	s.logger.Info().
		Int("order_id", order.ID).
		Int("customer_id", actor.ID).
		Str("kind", string(order.Kind)).
		Msg("order created")

	return order, nil
}

// ModifyOrder replaces the customer-editable fields of one of actor's orders.
func (s *CustomerService) ModifyOrder(actor *domain.User, id int, input ports.ModifyOrderInput) (*domain.Order, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, reject("modify order", err)
	}
	order, err := s.ownOrder(actor, id)
	if err != nil {
		return nil, reject("modify order", err)
	}

	err = order.Edit(domain.OrderDetails{
		Name:      input.Name,
		Kind:      input.Kind,
		Deadline:  input.Deadline,
		Reference: input.Reference,
		Extras:    input.Extras,
	})
	if err != nil {
		return nil, reject("modify order", err)
	}

	s.logger.Info().Int("order_id", id).Int("customer_id", actor.ID).Msg("order modified")
	return order, nil
}

// DeleteOrder removes one of actor's orders. Completed orders stay.
func (s *CustomerService) DeleteOrder(actor *domain.User, id int) error {
	order, err := s.ownOrder(actor, id)
	if err != nil {
		return reject("delete order", err)
	}
	if order.Locked() {
		return reject("delete order", domain.ErrOrderLocked)
	}
	if !s.orders.DeleteOrder(id) {
		return reject("delete order", domain.ErrOrderNotFound)
	}

	metrics.OrdersDeletedTotal.WithLabelValues(string(domain.RoleCustomer)).Inc()
	s.logger.Info().Int("order_id", id).Int("customer_id", actor.ID).Msg("order deleted")
	return nil
}

// ListOrders returns actor's orders in creation order.
func (s *CustomerService) ListOrders(actor *domain.User) ([]*domain.Order, error) {
	if err := requireRole(actor, domain.RoleCustomer); err != nil {
		return nil, err
	}
	var own []*domain.Order
	for _, o := range s.orders.Orders() {
		if o.CustomerID == actor.ID {
			own = append(own, o)
		}
	}
	return own, nil
}

func (s *CustomerService) ownOrder(actor *domain.User, id int) (*domain.Order, error) {
	if err := requireRole(actor, domain.RoleCustomer); err != nil {
		return nil, err
	}
	order, err := s.orders.FindOrder(id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.ID {
		return nil, fmt.Errorf("order %d belongs to customer %d: %w", id, order.CustomerID, domain.ErrForbidden)
	}
	return order, nil
}

func requireRole(actor *domain.User, role domain.Role) error {
	if actor == nil {
		return fmt.Errorf("no user logged in: %w", domain.ErrForbidden)
	}
	if actor.Role != role {
		return fmt.Errorf("%s role required: %w", role, domain.ErrForbidden)
	}
	return nil
}

// reject counts a refused operation and wraps err with op.
func reject(op string, err error) error {
	metrics.OrderRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
	return fmt.Errorf("%s: %w", op, err)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderLocked):
		return "locked"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrOrderAssigned):
		return "assigned"
	default:
		return "other"
	}
}
