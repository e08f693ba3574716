package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusInProgress OrderStatus = "InProgress"
	StatusCompleted  OrderStatus = "Completed"
	StatusCancelled  OrderStatus = "Cancelled"
)

// OrderKind classifies the requested design work.
type OrderKind string

const (
	KindLogo     OrderKind = "Logo"
	KindStatus   OrderKind = "Status"
	KindFeed     OrderKind = "Feed"
	KindAsset    OrderKind = "Asset"
	KindDocument OrderKind = "Document"
	KindOther    OrderKind = "Other"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// OrderKinds lists every kind in display order.
var OrderKinds = []OrderKind{KindLogo, KindStatus, KindFeed, KindAsset, KindDocument, KindOther}

// validTransitions defines the allowed state machine transitions. An open
// order may move to any status; Completed has no entry because a completed
// order is locked.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusPending, StatusCompleted, StatusCancelled},
	StatusCancelled:  {StatusPending, StatusInProgress, StatusCompleted},
}

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrOrderLocked       = errors.New("order is completed and locked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderAssigned     = errors.New("order assigned to another editor")
	ErrForbidden         = errors.New("access forbidden")
	ErrValidation        = errors.New("validation failed")
)

// ParseOrderStatus maps a persisted token to a status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return StatusPending, false
}

// ParseOrderKind maps a persisted token to a kind.
func ParseOrderKind(s string) (OrderKind, bool) {
	for _, k := range OrderKinds {
		if string(k) == s {
			return k, true
		}
	}
	return KindOther, false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
// Re-applying the current status is allowed unless the order is completed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return s != StatusCompleted
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a unit of requested design work.
type Order struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	Kind           OrderKind   `json:"kind"`
	Status         OrderStatus `json:"status"`
	Deadline       time.Time   `json:"deadline"`
	Reference      string      `json:"reference"`
	Extras         string      `json:"extras"`
	EditorAssigned string      `json:"editor_assigned"`
	FinalLink      string      `json:"final_link"`
	CustomerID     int         `json:"customer_id"`
}

// OrderDetails holds the customer-editable part of an order.
type OrderDetails struct {
	Name      string
	Kind      OrderKind
	Deadline  time.Time
	Reference string
	Extras    string
}

// NewOrder returns a pending, unassigned order.
func NewOrder(id int, name string, kind OrderKind, deadline time.Time) *Order {
	return &Order{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Status:   StatusPending,
		Deadline: deadline,
	}
}

// Locked reports whether the order rejects further edits.
func (o *Order) Locked() bool {
	return o.Status == StatusCompleted
}

// Assigned reports whether an editor owns the order.
func (o *Order) Assigned() bool {
	return o.EditorAssigned != ""
}

func (o *Order) Edit(d OrderDetails) error {
	if o.Locked() {
		return ErrOrderLocked
	}
	o.Name = d.Name
	o.Kind = d.Kind
	o.Deadline = d.Deadline
	o.Reference = d.Reference
	o.Extras = d.Extras
	return nil
}

func (o *Order) UpdateStatus(next OrderStatus) error {
	if o.Locked() {
		return ErrOrderLocked
	}
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	return nil
}

func (o *Order) AttachLink(link string) error {
	if o.Locked() {
		return ErrOrderLocked
	}
	o.FinalLink = link
	return nil
}

// AssignEditor hands the order to editor and moves it to InProgress.
func (o *Order) AssignEditor(editor string) error {
	if o.Locked() {
		return ErrOrderLocked
	}
	o.EditorAssigned = editor
	o.Status = StatusInProgress
	return nil
}

// UnassignEditor releases the order. The status is left as it is.
func (o *Order) UnassignEditor() error {
	if o.Locked() {
		return ErrOrderLocked
	}
	o.EditorAssigned = ""
	return nil
}
