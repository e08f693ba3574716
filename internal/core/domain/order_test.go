package domain

import (
	"errors"
	"testing"
	"time"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPending, true},
		{StatusInProgress, StatusPending, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusCancelled, StatusInProgress, true},
		{StatusCancelled, StatusCompleted, true},
		{StatusCancelled, StatusPending, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusPending, OrderStatus("Shipped"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseTokens(t *testing.T) {
	if s, ok := ParseOrderStatus("InProgress"); !ok || s != StatusInProgress {
		t.Fatalf("ParseOrderStatus(InProgress) = %q, %v", s, ok)
	}
	if s, ok := ParseOrderStatus("in progress"); ok || s != StatusPending {
		t.Fatalf("unknown status should default to Pending, got %q, %v", s, ok)
	}
	if k, ok := ParseOrderKind("Document"); !ok || k != KindDocument {
		t.Fatalf("ParseOrderKind(Document) = %q, %v", k, ok)
	}
	if k, ok := ParseOrderKind("Poster"); ok || k != KindOther {
		t.Fatalf("unknown kind should default to Other, got %q, %v", k, ok)
	}
	if r, ok := ParseRole("Admin"); ok || r != RoleCustomer {
		t.Fatalf("unknown role should default to Customer, got %q, %v", r, ok)
	}
}

func TestNewOrder_Defaults(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrder(1001, "Logo Design", KindLogo, deadline)

	if o.Status != StatusPending {
		t.Errorf("expected Pending, got %s", o.Status)
	}
	if o.EditorAssigned != "" || o.Assigned() {
		t.Errorf("expected no editor, got %q", o.EditorAssigned)
	}
	if !o.Deadline.Equal(deadline) {
		t.Errorf("deadline not kept")
	}
}

func TestOrder_AssignForcesInProgress(t *testing.T) {
	o := NewOrder(1, "x", KindOther, time.Now())
	o.Status = StatusCancelled

	if err := o.AssignEditor("bob"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if o.EditorAssigned != "bob" || o.Status != StatusInProgress {
		t.Fatalf("unexpected state: editor=%q status=%s", o.EditorAssigned, o.Status)
	}

	if err := o.UnassignEditor(); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if o.EditorAssigned != "" {
		t.Fatalf("editor not cleared")
	}
	if o.Status != StatusInProgress {
		t.Fatalf("unassign must not revert status, got %s", o.Status)
	}
}

func TestOrder_CompletedIsLocked(t *testing.T) {
	o := NewOrder(1, "Logo Design", KindLogo, time.Now())
	if err := o.UpdateStatus(StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	before := *o

	checks := map[string]error{
		"edit":     o.Edit(OrderDetails{Name: "changed", Kind: KindFeed}),
		"status":   o.UpdateStatus(StatusPending),
		"link":     o.AttachLink("http://y"),
		"assign":   o.AssignEditor("carol"),
		"unassign": o.UnassignEditor(),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrOrderLocked) {
			t.Errorf("%s: expected ErrOrderLocked, got %v", name, err)
		}
	}
	if *o != before {
		t.Fatalf("locked order changed: %+v", *o)
	}
}

func TestOrder_UpdateStatusRejectsUnknown(t *testing.T) {
	o := NewOrder(1, "x", KindOther, time.Now())
	o.Status = StatusCancelled

	if err := o.UpdateStatus(OrderStatus("Shipped")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if o.Status != StatusCancelled {
		t.Fatalf("status changed on rejected transition")
	}
}

func TestOrder_CancelledCanBeCompleted(t *testing.T) {
	o := NewOrder(1, "x", KindOther, time.Now())
	o.Status = StatusCancelled

	if err := o.UpdateStatus(StatusCompleted); err != nil {
		t.Fatalf("complete cancelled order: %v", err)
	}
	if !o.Locked() {
		t.Fatalf("expected completed order to be locked")
	}
}
