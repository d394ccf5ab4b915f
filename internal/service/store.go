package service

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-gradebook/internal/repository"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// recordStore is the slice of repository.Store the services depend on.
type recordStore interface {
	View(fn func(v *repository.View))
	Mutate(ctx context.Context, fn func(tx *repository.Tx) error) error
}

// translate maps repository errors onto domain errors. subject names the
// record kind for not-found and validation messages.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, subject+" not found")
	case errors.Is(err, repository.ErrDuplicateKey):
		return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, subject+" registration code already used")
	case errors.Is(err, repository.ErrInvalidRecord):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+subject)
	case errors.Is(err, repository.ErrPersist):
		return appErrors.Internal(err, "failed to save records")
	default:
		return appErrors.Internal(err, "failed to process "+subject)
	}
}

func invalid(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
