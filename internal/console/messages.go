package console

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
)

// userMessage maps known domain errors to the text shown to the user.
// Anything unexpected is logged and reported generically.
func userMessage(err error, log zerolog.Logger) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		// the field messages follow the sentinel text
		msg := err.Error()
		prefix := domain.ErrValidation.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			msg = msg[i+len(prefix):]
		}
		return "Invalid input: " + msg + "."
	case errors.Is(err, domain.ErrOrderNotFound):
		return "Order not found."
	case errors.Is(err, domain.ErrDuplicateOrder):
		return "An order with this id already exists."
	case errors.Is(err, domain.ErrOrderLocked):
		return "This order is completed and can no longer be changed."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That status change is not allowed."
	case errors.Is(err, domain.ErrOrderAssigned):
		return "This order is already assigned to another editor."
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, domain.ErrUserExists):
		return "Username already exists."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found."
	}

	log.Error().Err(err).Msg("unhandled error")
	return "Something went wrong."
}
