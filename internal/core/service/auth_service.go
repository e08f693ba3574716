package service

import (
	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/metrics"
)

// AuthService implements registration and login.
type AuthService struct {
	users    ports.UserRepository
	validate *inputValidator
	logger   zerolog.Logger
}

func NewAuthService(users ports.UserRepository, logger zerolog.Logger) *AuthService {
	return &AuthService{users: users, validate: newInputValidator(), logger: logger}
}

func (s *AuthService) Register(input ports.RegisterInput) (*domain.User, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.RegisterUser(input.Username, input.Password, input.Role)
	if err != nil {
		s.logger.Info().Str("username", input.Username).Err(err).Msg("registration rejected")
		return nil, err
	}

	metrics.UsersRegisteredTotal.WithLabelValues(string(user.Role)).Inc()
	s.logger.Info().Int("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.LoginUser(username, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.logger.Debug().Str("username", username).Msg("login failed")
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return user, nil
}
