package domain

import "errors"

// Role tags what a user may do with orders.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleEditor   Role = "Editor"
)

// FirstUserID is the id handed to the first registered user.
const FirstUserID = 1001

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ParseRole maps a persisted token to a role. Anything but "Editor" is a customer.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleEditor:
		return RoleEditor, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return RoleCustomer, false
	}
}

// User models an actor in the system. Customers author orders, editors fulfil them.
//
// Passwords are stored and compared in plaintext.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

func (u *User) VerifyPassword(password string) bool {
	return u.Password == password
}

func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }

func (u *User) IsEditor() bool { return u.Role == RoleEditor }
