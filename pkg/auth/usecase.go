package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
	"github.com/lexaprendiz/lexaprendiz/pkg/metrics"
)

// AuthUseCase describes authentication/registration behavior.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	CheckDuplicates(ctx context.Context, email, rawCPF string) (DuplicateReport, error)
}

// RegisterInput carries the untrusted registration form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	CPF      string
}

// Token is empty after a registration whose account was stored but whose
// token could not be issued; the client signs in with Login instead.
type AuthResult struct {
	User  User
	Token string
}

// AdminCredentials is the single environment-configured administrator.
type AdminCredentials struct {
	Username string
	Password string
}

type authService struct {
	repo       UserRepository
	tokens     TokenGenerator
	hasher     PasswordHasher
	duplicates *DuplicateResolver
	validator  cpf.Validator
	required   requiredSet
	revoker    TokenRevoker
	admin      AdminCredentials
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option customizes the auth service.
type Option func(*authService)

func WithHasher(h PasswordHasher) Option { return func(s *authService) { s.hasher = h } }
func WithValidator(v cpf.Validator) Option { return func(s *authService) { s.validator = v } }
func WithRequiredFields(fields []Field) Option { return func(s *authService) { s.required = newRequiredSet(fields) } }
func WithRevoker(r TokenRevoker) Option { return func(s *authService) { s.revoker = r } }
func WithAdmin(creds AdminCredentials) Option { return func(s *authService) { s.admin = creds } }
func WithLogger(log *zap.Logger) Option { return func(s *authService) { s.log = log } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *authService) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *authService) { s.now = now } }

// NewAuthService returns default implementation of AuthUseCase.
func NewAuthService(repo UserRepository, tokens TokenGenerator, opts ...Option) AuthUseCase {
	s := &authService{
		repo:       repo,
		tokens:     tokens,
		hasher:     BcryptHasher{},
		duplicates: NewDuplicateResolver(repo),
		validator:  cpf.Checksum,
		required:   newRequiredSet(DefaultRequiredFields),
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register runs received -> validated -> duplicate checked -> persisted.
// Every rejection names the field at fault; storage failures are wrapped in
// ErrStorage and leave nothing behind.
func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	res, err := s.register(ctx, in)
	s.metrics.Registration(registrationOutcome(err))
	return res, err
}

func (s *authService) register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := s.required.check(in); err != nil {
		return AuthResult{}, err
	}
	email := NormalizeEmail(in.Email)

	var storedCPF string
	if strings.TrimSpace(in.CPF) != "" {
		canonical, err := cpf.ParseWith(s.validator, in.CPF)
		if err != nil {
			return AuthResult{}, taxpayerError(err)
		}
		storedCPF = canonical
	}

	rep, err := s.duplicates.Check(ctx, email, storedCPF)
	if err != nil {
		s.log.Error("duplicate check failed", zap.Error(err))
		return AuthResult{}, err
	}
	if rep.EmailExists {
		return AuthResult{}, ErrDuplicateEmail
	}
	if rep.CPFExists {
		return AuthResult{}, ErrDuplicateTaxpayerID
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(in.Name),
		CPF:          storedCPF,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateTaxpayerID) {
			// lost a race against a concurrent registration
			return AuthResult{}, err
		}
		s.log.Error("persist user failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return AuthResult{}, fmt.Errorf("%w: create user: %w", ErrStorage, err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("cpf", cpf.Mask(storedCPF)))

	token, err := s.tokens.Generate(ctx, user.Principal())
	if err != nil {
		// the account exists; failing here would turn a retry into DuplicateEmail
		s.log.Warn("issue token after registration failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return AuthResult{User: user}, nil
	}
	return AuthResult{User: user, Token: token}, nil
}

func taxpayerError(err error) error {
	switch {
	case errors.Is(err, cpf.ErrMalformed):
		return ErrMalformedTaxpayerID
	case errors.Is(err, cpf.ErrInvalid):
		return ErrInvalidTaxpayerID
	default:
		return err
	}
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrMalformedTaxpayerID):
		return "malformed_cpf"
	case errors.Is(err, ErrInvalidTaxpayerID):
		return "invalid_cpf"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrDuplicateTaxpayerID):
		return "duplicate_cpf"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.Login("invalid")
			return AuthResult{}, ErrInvalidCredentials
		}
		s.metrics.Login("error")
		return AuthResult{}, fmt.Errorf("%w: lookup email: %w", ErrStorage, err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.Login("invalid")
		return AuthResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(ctx, user.Principal())
	if err != nil {
		return AuthResult{}, err
	}
	s.metrics.Login("ok")
	return AuthResult{User: user, Token: token}, nil
}

func (s *authService) AdminLogin(ctx context.Context, username, password string) (string, error) {
	if s.admin.Username == "" || s.admin.Password == "" {
		return "", ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
	if !userOK || !passOK {
		s.log.Warn("admin login rejected", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	return s.tokens.Generate(ctx, Principal{Subject: AdminSubjectPrefix + s.admin.Username, IsAdmin: true})
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil || tokenID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, tokenID, expiresAt)
}

func (s *authService) CheckDuplicates(ctx context.Context, email, rawCPF string) (DuplicateReport, error) {
	return s.duplicates.Check(ctx, email, rawCPF)
}
