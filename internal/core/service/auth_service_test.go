package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
)

type stubUserRepo struct {
	users  []*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{nextID: domain.FirstUserID}
}

func (r *stubUserRepo) RegisterUser(username, password string, role domain.Role) (*domain.User, error) {
	if r.UsernameExists(username) {
		return nil, domain.ErrUserExists
	}
	u := &domain.User{ID: r.nextID, Username: username, Password: password, Role: role}
	r.nextID++
	r.users = append(r.users, u)
	return u, nil
}

func (r *stubUserRepo) LoginUser(username, password string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Password == password {
			return u, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (r *stubUserRepo) UsernameExists(username string) bool {
	for _, u := range r.users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func (r *stubUserRepo) GetUserByID(id int) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) AllUsers() []*domain.User { return r.users }

func (r *stubUserRepo) RestoreUser(u domain.User) error {
	r.users = append(r.users, &u)
	return nil
}

func newAuthSvc() (*AuthService, *stubUserRepo) {
	repo := newStubUserRepo()
	return NewAuthService(repo, zerolog.Nop()), repo
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newAuthSvc()

	user, err := svc.Register(ports.RegisterInput{Username: "alice", Password: "pass1", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID != domain.FirstUserID {
		t.Fatalf("expected id %d, got %d", domain.FirstUserID, user.ID)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("unexpected role: %s", user.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, repo := newAuthSvc()

	cases := []struct {
		name  string
		input ports.RegisterInput
		want  string
	}{
		{"empty username", ports.RegisterInput{Password: "pass", Role: domain.RoleCustomer}, "username cannot be empty"},
		{"empty password", ports.RegisterInput{Username: "alice", Role: domain.RoleCustomer}, "password cannot be empty"},
		{"short username", ports.RegisterInput{Username: "al", Password: "pass", Role: domain.RoleCustomer}, "username must be at least 3 characters"},
		{"short password", ports.RegisterInput{Username: "alice", Password: "abc", Role: domain.RoleCustomer}, "password must be at least 4 characters"},
		{"bad role", ports.RegisterInput{Username: "alice", Password: "pass", Role: "Admin"}, "role must be one of"},
	}

	for _, tc := range cases {
		_, err := svc.Register(tc.input)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: message %q does not mention %q", tc.name, err.Error(), tc.want)
		}
	}
	if len(repo.users) != 0 {
		t.Fatalf("rejected registrations must not create users, got %d", len(repo.users))
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, repo := newAuthSvc()

	if _, err := svc.Register(ports.RegisterInput{Username: "alice", Password: "pass1", Role: domain.RoleCustomer}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ports.RegisterInput{Username: "alice", Password: "pass2", Role: domain.RoleEditor}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(repo.users))
	}

	alice, err := svc.Login("alice", "pass1")
	if err != nil {
		t.Fatalf("original alice must still log in: %v", err)
	}
	if alice.Role != domain.RoleCustomer {
		t.Fatalf("original alice changed role to %s", alice.Role)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _ := newAuthSvc()

	if _, err := svc.Register(ports.RegisterInput{Username: "carol", Password: "s3cret", Role: domain.RoleEditor}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := svc.Login("carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "carol" || !user.IsEditor() {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _ := newAuthSvc()

	_, _ = svc.Register(ports.RegisterInput{Username: "dave", Password: "goodpass", Role: domain.RoleCustomer})
	if _, err := svc.Login("dave", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc, _ := newAuthSvc()

	if _, err := svc.Login("ghost", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}
