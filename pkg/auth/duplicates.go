package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
)

// DuplicateReport tells which of the candidate fields already belong to an account.
type DuplicateReport struct {
	EmailExists bool `json:"email_exists"`
	CPFExists   bool `json:"cpf_exists"`
	CanRegister bool `json:"can_register"`
}

// DuplicateResolver finds accounts that would collide with a new registration.
// It never writes to the store.
type DuplicateResolver struct {
	accounts AccountLookup
}

func NewDuplicateResolver(accounts AccountLookup) *DuplicateResolver {
	return &DuplicateResolver{accounts: accounts}
}

// Check looks up the email (case-folded) and, when rawCPF holds 11 digits,
// both the canonical and the digits-only form of the CPF, since older rows
// may be stored either way. A failed lookup is returned wrapped in
// ErrStorage instead of being reported as "no duplicate".
func (r *DuplicateResolver) Check(ctx context.Context, email, rawCPF string) (DuplicateReport, error) {
	var rep DuplicateReport
	if e := NormalizeEmail(email); e != "" {
		found, err := exists(r.accounts.GetByEmail(ctx, e))
		if err != nil {
			return DuplicateReport{}, fmt.Errorf("%w: lookup email: %w", ErrStorage, err)
		}
		rep.EmailExists = found
	}
	found, err := r.cpfTaken(ctx, rawCPF)
	if err != nil {
		return DuplicateReport{}, err
	}
	rep.CPFExists = found
	rep.CanRegister = !rep.EmailExists && !rep.CPFExists
	return rep, nil
}

func (r *DuplicateResolver) cpfTaken(ctx context.Context, rawCPF string) (bool, error) {
	for _, form := range cpf.Representations(rawCPF) {
		found, err := exists(r.accounts.GetByCPF(ctx, form))
		if err != nil {
			return false, fmt.Errorf("%w: lookup cpf: %w", ErrStorage, err)
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func exists(_ User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
