package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/metrics"
)

type editorService struct {
	orders   ports.OrderRepository
	validate *inputValidator
	log      zerolog.Logger
}

// NewEditorService returns an EditorService implementation.
func NewEditorService(orders ports.OrderRepository, log zerolog.Logger) ports.EditorService {
	return &editorService{
		orders:   orders,
		validate: newInputValidator(),
		log:      log,
	}
}

// ListOrders returns every order in creation order.
func (s *editorService) ListOrders(actor *domain.User) ([]*domain.Order, error) {
	if err := requireRole(actor, domain.RoleEditor); err != nil {
		return nil, err
	}
	return s.orders.Orders(), nil
}

// AssignOrder claims an order for actor and moves it to InProgress.
func (s *editorService) AssignOrder(actor *domain.User, id int) (*domain.Order, error) {
	order, err := s.find(actor, id)
	if err != nil {
		return nil, reject("assign order", err)
	}
	if order.Assigned() && order.EditorAssigned != actor.Username {
		return nil, reject("assign order", fmt.Errorf("order %d held by %s: %w", id, order.EditorAssigned, domain.ErrOrderAssigned))
	}
	if err := order.AssignEditor(actor.Username); err != nil {
		return nil, reject("assign order", err)
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(order.Status)).Inc()
	s.log.Info().Int("order_id", id).Str("editor", actor.Username).Msg("order assigned")
	return order, nil
}

// UnassignOrder releases an order actor holds. The status is kept.
func (s *editorService) UnassignOrder(actor *domain.User, id int) (*domain.Order, error) {
	order, err := s.find(actor, id)
	if err != nil {
		return nil, reject("unassign order", err)
	}
	if order.EditorAssigned != actor.Username {
		return nil, reject("unassign order", fmt.Errorf("order %d not held by %s: %w", id, actor.Username, domain.ErrForbidden))
	}
	if err := order.UnassignEditor(); err != nil {
		return nil, reject("unassign order", err)
	}

	s.log.Info().Int("order_id", id).Str("editor", actor.Username).Msg("order unassigned")
	return order, nil
}

// CompleteOrder marks an order Completed, which locks it.
func (s *editorService) CompleteOrder(actor *domain.User, id int) (*domain.Order, error) {
	order, err := s.find(actor, id)
	if err != nil {
		return nil, reject("complete order", err)
	}
	if err := order.UpdateStatus(domain.StatusCompleted); err != nil {
		return nil, reject("complete order", err)
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	s.log.Info().Int("order_id", id).Str("editor", actor.Username).Msg("order completed")
	return order, nil
}

// AttachLink sets the deliverable link of an order.
func (s *editorService) AttachLink(actor *domain.User, id int, link string) (*domain.Order, error) {
	order, err := s.find(actor, id)
	if err != nil {
		return nil, reject("attach link", err)
	}
	if err := order.AttachLink(link); err != nil {
		return nil, reject("attach link", err)
	}

	s.log.Info().Int("order_id", id).Str("editor", actor.Username).Msg("link attached")
	return order, nil
}

// UpdateOrder applies a status and a final link in one step. Either both are
// applied or neither is.
func (s *editorService) UpdateOrder(actor *domain.User, id int, in ports.UpdateOrderInput) (*domain.Order, error) {
	// 1. Validate input.
	if err := s.validate.Validate(in); err != nil {
		return nil, reject("update order", err)
	}

	// 2. Find order.
	order, err := s.find(actor, id)
	if err != nil {
		return nil, reject("update order", err)
	}

	// 3. Check the lock and the state machine before touching anything.
	if order.Locked() {
		return nil, reject("update order", domain.ErrOrderLocked)
	}
	if !order.Status.CanTransitionTo(in.Status) {
		return nil, reject("update order", fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, order.Status, in.Status))
	}

	// 4. Link first: once the status is Completed the order is locked.
	if err := order.AttachLink(in.FinalLink); err != nil {
		return nil, reject("update order", err)
	}
	previous := order.Status
	if err := order.UpdateStatus(in.Status); err != nil {
		return nil, reject("update order", err)
	}

	if previous != order.Status {
		metrics.OrderStatusChangesTotal.WithLabelValues(string(order.Status)).Inc()
	}
	s.log.Info().
		Int("order_id", id).
		Str("editor", actor.Username).
		Str("status", string(order.Status)).
		Msg("order updated")

	return order, nil
}

// DeleteOrder removes any order that is not completed.
func (s *editorService) DeleteOrder(actor *domain.User, id int) error {
	order, err := s.find(actor, id)
	if err != nil {
		return reject("delete order", err)
	}
	if order.Locked() {
		return reject("delete order", domain.ErrOrderLocked)
	}
	if !s.orders.DeleteOrder(id) {
		return reject("delete order", domain.ErrOrderNotFound)
	}

	metrics.OrdersDeletedTotal.WithLabelValues(string(domain.RoleEditor)).Inc()
	s.log.Info().Int("order_id", id).Str("editor", actor.Username).Msg("order deleted")
	return nil
}

func (s *editorService) find(actor *domain.User, id int) (*domain.Order, error) {
	if err := requireRole(actor, domain.RoleEditor); err != nil {
		return nil, err
	}
	return s.orders.FindOrder(id)
}
