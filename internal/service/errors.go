package service

import (
	"errors"
	"fmt"

	"Voxline/internal/hub"
	"Voxline/internal/repo"
)

// ErrInvalidLogin is returned for an unknown email or a wrong password alike
var ErrInvalidLogin = &hub.EventError{Kind: hub.KindForbidden, Message: "Invalid email or password"}

func invalid(format string, args ...any) error {
	return &hub.EventError{Kind: hub.KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(message string) error {
	return &hub.EventError{Kind: hub.KindNotFound, Message: message}
}

func forbidden(message string) error {
	return &hub.EventError{Kind: hub.KindForbidden, Message: message}
}

func internal(message string, err error) error {
	return &hub.EventError{Kind: hub.KindInternal, Message: message, Err: err}
}

// lookupError turns a repository read failure into a client-facing error
func lookupError(err error, missing, failed string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(missing)
	}
	return internal(failed, err)
}
