package csvfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/infrastructure/db/memory"
)

func newTestManager() *SaveManager {
	return NewSaveManager(zerolog.Nop(), WithLocation(time.UTC))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func decode(t *testing.T, input string) (*memory.OrderManager, *memory.UserManager, LoadStats) {
	t.Helper()
	orders := memory.NewOrderManager()
	users := memory.NewUserManager()
	stats, err := newTestManager().Decode(context.Background(), strings.NewReader(input), orders, users)
	require.NoError(t, err)
	return orders, users, stats
}

func TestEncode_Layout(t *testing.T) {
	orders := memory.NewOrderManager()
	users := memory.NewUserManager()

	_, err := users.RegisterUser("alice", "pass1", domain.RoleCustomer)
	require.NoError(t, err)
	_, err = users.RegisterUser("bob", "pass2", domain.RoleEditor)
	require.NoError(t, err)

	o := domain.NewOrder(1001, "Logo Design", domain.KindLogo, day(2026, 3, 1))
	o.CustomerID = 1001
	require.NoError(t, orders.AddOrder(o))

	var buf bytes.Buffer
	require.NoError(t, newTestManager().Encode(&buf, orders, users))

	want := strings.Join([]string{
		usersMarker,
		usersHeader,
		"USER,1001,alice,pass1,Customer",
		"USER,1002,bob,pass2,Editor",
		"",
		ordersMarker,
		ordersHeader,
		`ORDER,1001,Logo Design,Pending,Logo,2026-03-01,"","","","",1001`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestEncode_QuotesSpecialCharacters(t *testing.T) {
	orders := memory.NewOrderManager()
	users := memory.NewUserManager()

	o := domain.NewOrder(7, `My "Big" Order, v2`, domain.KindOther, day(2026, 1, 5))
	require.NoError(t, orders.AddOrder(o))

	var buf bytes.Buffer
	require.NoError(t, newTestManager().Encode(&buf, orders, users))
	assert.Contains(t, buf.String(), `ORDER,7,"My ""Big"" Order, v2",Pending,Other,2026-01-05,`)

	loadedOrders, _, stats := decode(t, buf.String())
	assert.Equal(t, 1, stats.Orders)
	got, err := loadedOrders.FindOrder(7)
	require.NoError(t, err)
	assert.Equal(t, `My "Big" Order, v2`, got.Name)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "savedata.txt")

	orders := memory.NewOrderManager()
	users := memory.NewUserManager()
	_, err := users.RegisterUser("alice", "pa,ss", domain.RoleCustomer)
	require.NoError(t, err)
	_, err = users.RegisterUser("bob", `p"w`, domain.RoleEditor)
	require.NoError(t, err)

	first := domain.NewOrder(1001, "Logo Design", domain.KindLogo, day(2026, 3, 1))
	first.Reference = "brand book,\nsecond line"
	first.Extras = "blue tones\r\nmatte finish"
	first.CustomerID = 1001
	require.NoError(t, first.AssignEditor("bob"))
	require.NoError(t, first.AttachLink("https://files.example/logo.zip"))
	require.NoError(t, orders.AddOrder(first))

	second := domain.NewOrder(1002, "Weekly\r\nFeed", domain.KindFeed, day(2026, 12, 31))
	second.CustomerID = 1001
	require.NoError(t, second.UpdateStatus(domain.StatusCompleted))
	require.NoError(t, orders.AddOrder(second))

	m := newTestManager()
	require.NoError(t, m.SaveToFile(ctx, path, orders, users))

	loadedOrders := memory.NewOrderManager()
	loadedUsers := memory.NewUserManager()
	loaded, err := m.LoadFromFile(ctx, path, loadedOrders, loadedUsers)
	require.NoError(t, err)
	assert.True(t, loaded)

	require.Len(t, loadedUsers.AllUsers(), 2)
	for i, u := range users.AllUsers() {
		assert.Equal(t, *u, *loadedUsers.AllUsers()[i])
	}

	require.Len(t, loadedOrders.Orders(), 2)
	for i, o := range orders.Orders() {
		got := loadedOrders.Orders()[i]
		assert.True(t, o.Deadline.Equal(got.Deadline), "deadline of %d", o.ID)
		got.Deadline = o.Deadline
		assert.Equal(t, *o, *got)
	}
}

func TestSaveToFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "savedata.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, newTestManager().SaveToFile(context.Background(), path, memory.NewOrderManager(), memory.NewUserManager()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), usersMarker+"\n"))
}

func TestSaveToFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "savedata.txt")

	err := newTestManager().SaveToFile(context.Background(), path, memory.NewOrderManager(), memory.NewUserManager())
	assert.Error(t, err)
}

func TestLoadFromFile_MissingFileIsColdStart(t *testing.T) {
	orders := memory.NewOrderManager()
	users := memory.NewUserManager()

	loaded, err := newTestManager().LoadFromFile(context.Background(), filepath.Join(t.TempDir(), "none.txt"), orders, users)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Zero(t, orders.Len())
	assert.Zero(t, users.Len())
}

func TestDecode_SkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		usersMarker,
		usersHeader,
		"USER,1001,alice,pass1,Customer",
		"USER,abc,mallory,x,Customer",
		"USER,1002,short",
		"USER,1003,alice,other,Editor",
		"",
		ordersMarker,
		ordersHeader,
		`ORDER,1001,Good,Pending,Logo,2026-03-01,"","","","",1001`,
		`ORDER,1002,Bad date,Pending,Logo,not-a-date,"","","","",1001`,
		`ORDER,x,Bad id,Pending,Logo,2026-03-01,"","","","",1001`,
		`ORDER,1003,Short,Pending`,
		`ORDER,1001,Dup,Pending,Logo,2026-03-01,"","","","",1001`,
		`INVOICE,1,whatever`,
		`USER,1009,late,pw,Customer`,
	}, "\n")

	orders, users, stats := decode(t, input)

	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 9, stats.Skipped)
	assert.Equal(t, 1, users.Len())
	assert.Equal(t, 1, orders.Len())
}

func TestDecode_MarkerOnlyOnExactLine(t *testing.T) {
	input := strings.Join([]string{
		usersMarker,
		"USER,1001,alice,pass1,Customer",
		"# Users and Orders",
		`ORDER,1001,Users Orders,Pending,Logo,2026-03-01,"","","","",1001`,
		ordersMarker,
		`ORDER,1002,"# Users",Pending,Logo,2026-03-01,"","","","",1001`,
	}, "\n")

	orders, users, stats := decode(t, input)

	assert.Equal(t, 1, users.Len())
	// The first ORDER row is still inside the users section.
	assert.Equal(t, 1, stats.Skipped)
	require.Equal(t, 1, orders.Len())
	assert.Equal(t, "# Users", orders.Orders()[0].Name)
}

func TestDecode_RowMustMatchSection(t *testing.T) {
	input := strings.Join([]string{
		usersMarker,
		`ORDER,1001,Early,Pending,Logo,2026-03-01,"","","","",1001`,
		"USER,1001,alice,pass1,Customer",
		ordersMarker,
		"USER,1002,bob,pass2,Editor",
		`ORDER,1002,Kept,Pending,Logo,2026-03-01,"","","","",1001`,
	}, "\n")

	orders, users, stats := decode(t, input)

	assert.Equal(t, 2, stats.Skipped)
	require.Equal(t, 1, users.Len())
	_, err := users.GetUserByID(1002)
	assert.Error(t, err)
	require.Equal(t, 1, orders.Len())
	assert.Equal(t, "Kept", orders.Orders()[0].Name)
}

func TestDecode_UnknownEnumsFallBack(t *testing.T) {
	input := strings.Join([]string{
		usersMarker,
		"USER,1001,alice,pass1,Admin",
		ordersMarker,
		`ORDER,1001,Poster,Shipped,Poster,2026-3-1,"","","","",1001`,
	}, "\n")

	orders, users, stats := decode(t, input)
	require.Zero(t, stats.Skipped)

	u, err := users.GetUserByID(1001)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)

	o, err := orders.FindOrder(1001)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.KindOther, o.Kind)
	assert.True(t, o.Deadline.Equal(day(2026, 3, 1)))
}

func TestDecode_ResyncsUserCounter(t *testing.T) {
	input := strings.Join([]string{
		usersMarker,
		"USER,1001,alice,pass1,Customer",
		"USER,1007,bob,pass2,Editor",
	}, "\n")

	_, users, _ := decode(t, input)

	u, err := users.RegisterUser("carol", "pass3", domain.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, 1008, u.ID)

	bob, err := users.GetUserByID(1007)
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Username)
}

func TestDecode_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestManager().Decode(ctx, strings.NewReader(usersMarker), memory.NewOrderManager(), memory.NewUserManager())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.txt")
	store := NewFileStore(path, newTestManager())
	assert.Equal(t, path, store.Path())

	users := memory.NewUserManager()
	_, err := users.RegisterUser("alice", "pass1", domain.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, memory.NewOrderManager(), users))

	reloaded := memory.NewUserManager()
	loaded, err := store.Load(ctx, memory.NewOrderManager(), reloaded)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 1, reloaded.Len())
	assert.NoError(t, store.Close())
}
