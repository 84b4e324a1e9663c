package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/queries"
)

var ErrValidation = errors.New("validation failed")

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// StructValidator checks `validate` struct tags on commands and queries.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() StructValidator {
	return StructValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (s StructValidator) Validate(ctx context.Context, message any) error {
	if s.v == nil {
		s = NewStructValidator()
	}
	err := s.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, ", "))
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// non-struct messages carry nothing to validate
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
