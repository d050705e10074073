package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
)

// ProfileInput is the editable part of an account. Empty strings clear a field,
// except CPF which can only be set once.
type ProfileInput struct {
	Name         string
	CPF          string
	City         string
	State        string
	CEP          string
	Address      string
	Number       string
	Complement   string
	Neighborhood string
}

// ProfileUseCase reads and edits the caller's own account.
type ProfileUseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (User, error)
	Update(ctx context.Context, userID uuid.UUID, in ProfileInput) (User, error)
}

type profileService struct {
	repo       UserRepository
	duplicates *DuplicateResolver
	validator  cpf.Validator
}

func NewProfileService(repo UserRepository) ProfileUseCase {
	return &profileService{repo: repo, duplicates: NewDuplicateResolver(repo), validator: cpf.Checksum}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, in ProfileInput) (User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	state := strings.ToUpper(strings.TrimSpace(in.State))
	if state != "" && !isUF(state) {
		return User{}, ErrInvalidState
	}
	cep, err := formatCEP(in.CEP)
	if err != nil {
		return User{}, err
	}
	newCPF, err := s.resolveCPF(ctx, user, in.CPF)
	if err != nil {
		return User{}, err
	}

	user.Name = strings.TrimSpace(in.Name)
	user.CPF = newCPF
	user.City = strings.TrimSpace(in.City)
	user.State = state
	user.CEP = cep
	user.Address = strings.TrimSpace(in.Address)
	user.Number = strings.TrimSpace(in.Number)
	user.Complement = strings.TrimSpace(in.Complement)
	user.Neighborhood = strings.TrimSpace(in.Neighborhood)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateTaxpayerID) || errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		return User{}, fmt.Errorf("%w: update profile: %w", ErrStorage, err)
	}
	return user, nil
}

// resolveCPF applies the set-once rule. A stored CPF stays as is; sending the
// same digits again in any representation is accepted.
func (s *profileService) resolveCPF(ctx context.Context, user User, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return user.CPF, nil
	}
	if user.CPF != "" {
		if cpf.Normalize(raw) != cpf.Normalize(user.CPF) {
			return "", ErrTaxpayerIDImmutable
		}
		return user.CPF, nil
	}
	canonical, err := cpf.ParseWith(s.validator, raw)
	if err != nil {
		return "", taxpayerError(err)
	}
	rep, err := s.duplicates.Check(ctx, "", canonical)
	if err != nil {
		return "", err
	}
	if rep.CPFExists {
		return "", ErrDuplicateTaxpayerID
	}
	return canonical, nil
}

var ufs = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
	"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
	"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

func isUF(s string) bool { return ufs[s] }

// formatCEP renders a postal code as "00000-000".
func formatCEP(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	digits := cpf.Normalize(raw)
	if len(digits) != 8 {
		return "", ErrInvalidCEP
	}
	return digits[:5] + "-" + digits[5:], nil
}
