package application

import (
	"context"
	"errors"
	"fmt"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// ErrValidation marks input rejected before any state was touched.
var ErrValidation = errors.New("validation")

// Invalid wraps cause (a domain error or a plain message) as a validation failure.
func Invalid(cause error) error {
	return fmt.Errorf("%w: %w", ErrValidation, cause)
}
