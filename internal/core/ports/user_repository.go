package ports

import "github.com/desainin/order-manager/internal/core/domain"

// UserRepository owns every user record.
type UserRepository interface {
	RegisterUser(username, password string, role domain.Role) (*domain.User, error)
	// LoginUser returns ErrInvalidCredentials for an unknown user and for a wrong password alike.
	LoginUser(username, password string) (*domain.User, error)
	UsernameExists(username string) bool
	GetUserByID(id int) (*domain.User, error)
	// AllUsers returns all users in registration order.
	AllUsers() []*domain.User
	// RestoreUser re-inserts a persisted user keeping its id.
	RestoreUser(u domain.User) error
}
