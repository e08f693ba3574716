// Package console is a line-oriented front end over the order services:
// register and log in, then work through the customer or editor menu.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
)

const (
	minDeadlineDays     = 1
	maxDeadlineDays     = 365
	defaultDeadlineDays = 7
	dateLayout          = "2006-01-02"
)

type Shell struct {
	auth      ports.AuthService
	customers ports.CustomerService
	editors   ports.EditorService

	in    *bufio.Reader
	lines chan string
	ctx   context.Context
	out   io.Writer
	log   zerolog.Logger
	now   func() time.Time
	eof   bool
}

type Option func(*Shell)

// WithClock replaces time.Now as the base for "deadline in N days".
func WithClock(now func() time.Time) Option {
	return func(sh *Shell) { sh.now = now }
}

func NewShell(auth ports.AuthService, customers ports.CustomerService, editors ports.EditorService,
	in io.Reader, out io.Writer, log zerolog.Logger, opts ...Option) *Shell {
	sh := &Shell{
		auth:      auth,
		customers: customers,
		editors:   editors,
		in:        bufio.NewReader(in),
		out:       out,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(sh)
	}
	return sh
}

// Run shows the start menu until the user exits, input ends or ctx is done.
// It returns promptly on cancellation even while waiting for input; once it
// has returned no service call is in flight.
func (sh *Shell) Run(ctx context.Context) {
	sh.ctx = ctx
	sh.lines = make(chan string)
	go sh.readInput(ctx)

	for !sh.done(ctx) {
		sh.println("\n=== Order Manager ===")
		sh.println("1) Register")
		sh.println("2) Log in")
		sh.println("0) Exit")
		switch sh.prompt("> ") {
		case "1":
			sh.register()
		case "2":
			if u := sh.login(); u != nil {
				sh.session(ctx, u)
			}
		case "0":
			return
		default:
			sh.unknown()
		}
	}
}

func (sh *Shell) register() {
	sh.println("\n=== Register ===")
	username := sh.prompt("Username: ")
	password := sh.promptRaw("Password: ")
	role := sh.chooseRole()
	if sh.eof {
		return
	}

	u, err := sh.auth.Register(ports.RegisterInput{Username: username, Password: password, Role: role})
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Registered %s as %s (id %d).\n", u.Username, u.Role, u.ID)
}

func (sh *Shell) login() *domain.User {
	sh.println("\n=== Log in ===")
	username := sh.prompt("Username: ")
	password := sh.promptRaw("Password: ")
	if sh.eof {
		return nil
	}

	u, err := sh.auth.Login(username, password)
	if err != nil {
		sh.fail(err)
		return nil
	}
	sh.printf("Welcome, %s!\n", u.Username)
	return u
}

func (sh *Shell) session(ctx context.Context, u *domain.User) {
	if u.IsEditor() {
		sh.editorMenu(ctx, u)
		return
	}
	sh.customerMenu(ctx, u)
}

func (sh *Shell) customerMenu(ctx context.Context, u *domain.User) {
	for !sh.done(ctx) {
		sh.println("\n=== My orders ===")
		sh.println("1) List my orders")
		sh.println("2) New order")
		sh.println("3) Edit order")
		sh.println("4) Delete order")
		sh.println("0) Log out")
		switch sh.prompt("> ") {
		case "1":
			orders, err := sh.customers.ListOrders(u)
			if err != nil {
				sh.fail(err)
				continue
			}
			sh.printOrders(orders)
		case "2":
			sh.newOrder(u)
		case "3":
			sh.editOrder(u)
		case "4":
			sh.deleteOrder(u)
		case "0":
			return
		default:
			sh.unknown()
		}
	}
}

func (sh *Shell) newOrder(u *domain.User) {
	name := sh.prompt("Order name: ")
	kind := sh.chooseKind(domain.KindOther)
	days := sh.readDays(fmt.Sprintf("Deadline in days (%d-%d) [%d]: ", minDeadlineDays, maxDeadlineDays, defaultDeadlineDays), defaultDeadlineDays)
	reference := sh.prompt("Reference: ")
	extras := sh.prompt("Extras: ")
	if sh.eof {
		return
	}

	order, err := sh.customers.CreateOrder(u, ports.CreateOrderInput{
		Name:      name,
		Kind:      kind,
		Deadline:  sh.deadlineIn(days),
		Reference: reference,
		Extras:    extras,
	})
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d created, due %s.\n", order.ID, order.Deadline.Format(dateLayout))
}

// editOrder prompts for each field with the current value as default.
func (sh *Shell) editOrder(u *domain.User) {
	orders, err := sh.customers.ListOrders(u)
	if err != nil {
		sh.fail(err)
		return
	}
	current, ok := sh.pickOrder(orders)
	if !ok {
		return
	}
	if current.Locked() {
		sh.fail(domain.ErrOrderLocked)
		return
	}

	in := ports.ModifyOrderInput{
		Name:      sh.promptDefault("Order name", current.Name),
		Kind:      sh.chooseKind(current.Kind),
		Deadline:  current.Deadline,
		Reference: sh.promptDefault("Reference", current.Reference),
		Extras:    sh.promptDefault("Extras", current.Extras),
	}
	label := fmt.Sprintf("Deadline in days (%d-%d) [keep %s]: ", minDeadlineDays, maxDeadlineDays, current.Deadline.Format(dateLayout))
	if days := sh.readDays(label, 0); days > 0 {
		in.Deadline = sh.deadlineIn(days)
	}
	if sh.eof {
		return
	}

	if _, err := sh.customers.ModifyOrder(u, current.ID, in); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d updated.\n", current.ID)
}

func (sh *Shell) deleteOrder(u *domain.User) {
	id, ok := sh.readID()
	if !ok {
		return
	}
	if !sh.confirm(fmt.Sprintf("Delete order #%d? (y/N): ", id)) {
		return
	}
	if err := sh.customers.DeleteOrder(u, id); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d deleted.\n", id)
}

func (sh *Shell) editorMenu(ctx context.Context, u *domain.User) {
	for !sh.done(ctx) {
		sh.println("\n=== All orders ===")
		sh.println("1) List all orders")
		sh.println("2) Assign order to me")
		sh.println("3) Unassign order")
		sh.println("4) Update status and link")
		sh.println("5) Attach link")
		sh.println("6) Mark completed")
		sh.println("7) Delete order")
		sh.println("0) Log out")
		switch sh.prompt("> ") {
		case "1":
			orders, err := sh.editors.ListOrders(u)
			if err != nil {
				sh.fail(err)
				continue
			}
			sh.printOrders(orders)
		case "2":
			sh.editorAction(u, "assigned to you", sh.editors.AssignOrder)
		case "3":
			sh.editorAction(u, "unassigned", sh.editors.UnassignOrder)
		case "4":
			sh.updateOrder(u)
		case "5":
			sh.attachLink(u)
		case "6":
			sh.editorAction(u, "completed", sh.editors.CompleteOrder)
		case "7":
			sh.editorDelete(u)
		case "0":
			return
		default:
			sh.unknown()
		}
	}
}

func (sh *Shell) editorAction(u *domain.User, done string, action func(*domain.User, int) (*domain.Order, error)) {
	id, ok := sh.readID()
	if !ok {
		return
	}
	order, err := action(u, id)
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d %s (%s).\n", order.ID, done, order.Status)
}

func (sh *Shell) updateOrder(u *domain.User) {
	orders, err := sh.editors.ListOrders(u)
	if err != nil {
		sh.fail(err)
		return
	}
	current, ok := sh.pickOrder(orders)
	if !ok {
		return
	}

	status := sh.chooseStatus(current.Status)
	link := sh.promptDefault("Final link", current.FinalLink)
	if sh.eof {
		return
	}

	order, err := sh.editors.UpdateOrder(u, current.ID, ports.UpdateOrderInput{Status: status, FinalLink: link})
	if err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d is now %s.\n", order.ID, order.Status)
}

func (sh *Shell) attachLink(u *domain.User) {
	id, ok := sh.readID()
	if !ok {
		return
	}
	link := sh.prompt("Final link: ")
	if sh.eof {
		return
	}
	if _, err := sh.editors.AttachLink(u, id, link); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Link attached to order #%d.\n", id)
}

func (sh *Shell) editorDelete(u *domain.User) {
	id, ok := sh.readID()
	if !ok {
		return
	}
	if !sh.confirm(fmt.Sprintf("Delete order #%d? (y/N): ", id)) {
		return
	}
	if err := sh.editors.DeleteOrder(u, id); err != nil {
		sh.fail(err)
		return
	}
	sh.printf("Order #%d deleted.\n", id)
}

func (sh *Shell) printOrders(orders []*domain.Order) {
	if len(orders) == 0 {
		sh.println("No orders.")
		return
	}
	for _, o := range orders {
		sh.printf("#%d  %s  [%s]  %s  due %s  editor: %s  link: %s\n",
			o.ID, o.Name, o.Kind, o.Status, o.Deadline.Format(dateLayout), dash(o.EditorAssigned), dash(o.FinalLink))
		if o.Reference != "" || o.Extras != "" {
			sh.printf("    reference: %s  extras: %s\n", dash(o.Reference), dash(o.Extras))
		}
	}
}

// pickOrder reads an id and looks it up in orders.
func (sh *Shell) pickOrder(orders []*domain.Order) (*domain.Order, bool) {
	id, ok := sh.readID()
	if !ok {
		return nil, false
	}
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	sh.fail(domain.ErrOrderNotFound)
	return nil, false
}

func (sh *Shell) readID() (int, bool) {
	raw := sh.prompt("Order id: ")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		if !sh.eof {
			sh.println("Please enter a positive order id.")
		}
		return 0, false
	}
	return id, true
}

// readDays returns def on empty input. Other values are clamped to the
// allowed deadline range.
func (sh *Shell) readDays(label string, def int) int {
	for {
		raw := sh.prompt(label)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			sh.println("Please enter a whole number of days.")
			continue
		}
		return clampDays(n)
	}
}

func clampDays(n int) int {
	return max(minDeadlineDays, min(n, maxDeadlineDays))
}

// deadlineIn is midnight, days from today.
func (sh *Shell) deadlineIn(days int) time.Time {
	now := sh.now()
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, now.Location())
}

func (sh *Shell) chooseRole() domain.Role {
	switch strings.ToLower(sh.prompt("Role (1 Customer, 2 Editor) [Customer]: ")) {
	case "2", "editor":
		return domain.RoleEditor
	default:
		return domain.RoleCustomer
	}
}

func (sh *Shell) chooseKind(current domain.OrderKind) domain.OrderKind {
	opts := make([]string, len(domain.OrderKinds))
	for i, k := range domain.OrderKinds {
		opts[i] = fmt.Sprintf("%d %s", i+1, k)
	}
	raw := sh.prompt(fmt.Sprintf("Kind (%s) [%s]: ", strings.Join(opts, ", "), current))
	if raw == "" {
		return current
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(domain.OrderKinds) {
		return domain.OrderKinds[n-1]
	}
	if k, ok := domain.ParseOrderKind(raw); ok {
		return k
	}
	sh.printf("Unknown kind, keeping %s.\n", current)
	return current
}

func (sh *Shell) chooseStatus(current domain.OrderStatus) domain.OrderStatus {
	opts := make([]string, len(domain.OrderStatuses))
	for i, st := range domain.OrderStatuses {
		opts[i] = fmt.Sprintf("%d %s", i+1, st)
	}
	raw := sh.prompt(fmt.Sprintf("Status (%s) [%s]: ", strings.Join(opts, ", "), current))
	if raw == "" {
		return current
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(domain.OrderStatuses) {
		return domain.OrderStatuses[n-1]
	}
	if st, ok := domain.ParseOrderStatus(raw); ok {
		return st
	}
	sh.printf("Unknown status, keeping %s.\n", current)
	return current
}

func (sh *Shell) confirm(label string) bool {
	switch strings.ToLower(sh.prompt(label)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (sh *Shell) promptDefault(label, current string) string {
	raw := sh.prompt(fmt.Sprintf("%s [%s]: ", label, current))
	if raw == "" {
		return current
	}
	return raw
}

func (sh *Shell) prompt(label string) string {
	return strings.TrimSpace(sh.promptRaw(label))
}

func (sh *Shell) promptRaw(label string) string {
	fmt.Fprint(sh.out, label)
	return sh.readLine()
}

// readInput feeds lines to readLine. It is the only reader of sh.in, so a
// read blocked on a terminal never holds up Run.
func (sh *Shell) readInput(ctx context.Context) {
	defer close(sh.lines)
	for {
		s, err := sh.in.ReadString('\n')
		if s != "" {
			select {
			case sh.lines <- s:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// readLine returns "" and marks the input finished when it runs dry or the
// context is cancelled.
func (sh *Shell) readLine() string {
	if sh.eof {
		return ""
	}
	select {
	case s, ok := <-sh.lines:
		if !ok {
			sh.eof = true
			return ""
		}
		return strings.TrimRight(s, "\r\n")
	case <-sh.ctx.Done():
		sh.eof = true
		return ""
	}
}

func (sh *Shell) done(ctx context.Context) bool {
	return sh.eof || ctx.Err() != nil
}

func (sh *Shell) fail(err error) {
	sh.println("Error: " + userMessage(err, sh.log))
}

func (sh *Shell) unknown() {
	if !sh.eof {
		sh.println("Unknown option.")
	}
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.out, s)
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
