package memory

import (
	"fmt"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
)

var _ ports.UserRepository = (*UserManager)(nil)

// UserManager keeps users in registration order and hands out sequential ids.
type UserManager struct {
	users  []*domain.User
	nextID int
}

func NewUserManager() *UserManager {
	return &UserManager{nextID: domain.FirstUserID}
}

// RegisterUser creates a user with the next sequential id. Usernames are
// compared case-sensitively.
func (m *UserManager) RegisterUser(username, password string, role domain.Role) (*domain.User, error) {
	if m.UsernameExists(username) {
		return nil, domain.ErrUserExists
	}
	u := &domain.User{
		ID:       m.nextID,
		Username: username,
		Password: password,
		Role:     role,
	}
	m.users = append(m.users, u)
	m.nextID++
	return u, nil
}

func (m *UserManager) LoginUser(username, password string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username && u.VerifyPassword(password) {
			return u, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *UserManager) UsernameExists(username string) bool {
	return m.findByUsername(username) != nil
}

func (m *UserManager) GetUserByID(id int) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *UserManager) AllUsers() []*domain.User {
	out := make([]*domain.User, len(m.users))
	copy(out, m.users)
	return out
}

// RestoreUser inserts a previously saved user with its original id and moves
// the id counter past it. The first occurrence of a username or id wins.
func (m *UserManager) RestoreUser(u domain.User) error {
	if m.UsernameExists(u.Username) {
		return fmt.Errorf("restore user %q: %w", u.Username, domain.ErrUserExists)
	}
	if _, err := m.GetUserByID(u.ID); err == nil {
		return fmt.Errorf("restore user id %d: %w", u.ID, domain.ErrUserExists)
	}
	restored := u
	m.users = append(m.users, &restored)
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	return nil
}

func (m *UserManager) Len() int { return len(m.users) }

// Reset drops every user and restarts ids at FirstUserID.
func (m *UserManager) Reset() {
	m.users = nil
	m.nextID = domain.FirstUserID
}

func (m *UserManager) findByUsername(username string) *domain.User {
	for _, u := range m.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
