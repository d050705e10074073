package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors used by repository/use cases
var (
	ErrNotFound           = errors.New("not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMissingField        = errors.New("required field is missing")
	ErrMalformedTaxpayerID = errors.New("cpf must have 11 digits")
	ErrInvalidTaxpayerID   = errors.New("cpf is invalid")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateTaxpayerID = errors.New("cpf already registered")
	ErrTaxpayerIDImmutable = errors.New("cpf cannot be changed once set")
	ErrInvalidState        = errors.New("state must be a two-letter UF")
	ErrInvalidCEP          = errors.New("cep must have 8 digits")
	ErrStorage             = errors.New("storage failure")
)

// MissingFieldError names the field that was left empty.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string { return string(e.Field) + " is required" }

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// AccountLookup is the read side the duplicate resolver needs. GetByCPF
// matches the stored value exactly; callers try every representation.
type AccountLookup interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByCPF(ctx context.Context, cpf string) (User, error)
}

// UserRepository abstracts persistence concerns from the domain layer.
// Create must be atomic and must enforce uniqueness of email and CPF,
// answering ErrDuplicateEmail or ErrDuplicateTaxpayerID on conflict.
type UserRepository interface {
	AccountLookup
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateProfile(ctx context.Context, user User) error
}
