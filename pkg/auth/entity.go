package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. CPF is empty when the account has none;
// otherwise it holds whatever representation was stored, canonical
// "000.000.000-00" for accounts created by this service.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CPF          string    `json:"cpf"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	CEP          string    `json:"cep"`
	Address      string    `json:"address"`
	Number       string    `json:"number"`
	Complement   string    `json:"complement"`
	Neighborhood string    `json:"neighborhood"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasProfile reports whether the account filled in name and CPF.
func (u User) HasProfile() bool {
	return u.Name != "" && u.CPF != ""
}

// Principal is the identity a token is issued for.
type Principal struct {
	Subject string
	IsAdmin bool
}

func (u User) Principal() Principal {
	return Principal{Subject: u.ID.String(), IsAdmin: u.IsAdmin}
}

// AdminSubjectPrefix marks tokens issued to the environment-configured admin.
const AdminSubjectPrefix = "admin:"

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
