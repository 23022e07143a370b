// Package service holds helpers shared by the note and category services.
package service

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/RedDeadth/Typeimp-Repository/internal/store"
	appErrors "github.com/RedDeadth/Typeimp-Repository/pkg/errors"
)

// MsgUnauthorized is returned when a request carries no resolvable identity.
const MsgUnauthorized = "Unauthorized: User ID not found."

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// RequireOwner fails with Unauthorized when owner is empty.
func RequireOwner(owner string) error {
	if owner == "" {
		return appErrors.NewUnauthorized(MsgUnauthorized)
	}
	return nil
}

// StoreError converts a store failure into an AppError. notFound is the
// message used when a MustExist precondition did not hold; action describes
// the attempted operation for unavailable and internal failures.
func StoreError(err error, action, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return appErrors.NewNotFound(notFound)
	case errors.Is(err, store.ErrPreconditionFailed):
		return appErrors.NewConflict("Could not " + action + ": the item already exists.")
	case errors.Is(err, store.ErrUnavailable):
		return appErrors.NewUnavailable("Could not "+action, err)
	default:
		return appErrors.NewInternal("Could not "+action, err)
	}
}
