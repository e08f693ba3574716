package ports

import "github.com/desainin/order-manager/internal/core/domain"

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string      `validate:"required,min=3"`
	Password string      `validate:"required,min=4"`
	Role     domain.Role `validate:"required,oneof=Customer Editor"`
}

type AuthService interface {
	Register(input RegisterInput) (*domain.User, error)
	Login(username, password string) (*domain.User, error)
}
