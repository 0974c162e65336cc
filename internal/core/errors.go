package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services, stores and the HTTP layer.
// Validation sentinels wrap ErrValidation so callers can match the
// whole family with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNotFound               = errors.New("not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrPersistence            = errors.New("persistence failure")
)

var (
	ErrInvalidAmount   = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidKind     = fmt.Errorf("%w: invalid transaction kind", ErrValidation)
	ErrEmptyCategory   = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyDonorName  = fmt.Errorf("%w: empty donor name", ErrValidation)
	ErrEmptyPhone      = fmt.Errorf("%w: empty phone number", ErrValidation)
	ErrInvalidMethod   = fmt.Errorf("%w: invalid payment method", ErrValidation)
	ErrLongDescription = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
)
