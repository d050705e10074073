package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
)

// PageSize is the number of users per page in the admin listing.
const PageSize = 20

// Repository is the admin view over the accounts table.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (auth.User, error)
	CountUsers(ctx context.Context) (int, error)
	CountUsersWithProfile(ctx context.Context) (int, error)
	RecentUsers(ctx context.Context, limit int) ([]auth.User, error)
	SearchUsers(ctx context.Context, q UserQuery) ([]auth.User, int, error)
	// EachUser visits every account, oldest first (created_at, then id).
	EachUser(ctx context.Context, fn func(auth.User) error) error
	// DeleteUsers removes the accounts and their questions in one transaction.
	DeleteUsers(ctx context.Context, ids []uuid.UUID) (int, error)
	// UpdateCPFs rewrites stored CPFs in one transaction.
	UpdateCPFs(ctx context.Context, cpfs map[uuid.UUID]string) error
}

// UserQuery filters the admin listing. Search matches name, email or CPF as
// typed; CPFDigits, when set, also matches CPFs by their digits so either
// stored representation is found.
type UserQuery struct {
	Search    string
	CPFDigits string
	Limit     int
	Offset    int
}

type Stats struct {
	TotalUsers       int         `json:"totalUsers"`
	UsersWithProfile int         `json:"usersWithProfile"`
	RecentUsers      []auth.User `json:"recentUsers"`
}

type UserPage struct {
	Users   []auth.User `json:"users"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	PerPage int         `json:"perPage"`
	Search  string      `json:"search"`
}

type UserDetail struct {
	User      auth.User     `json:"user"`
	Questions []qa.Question `json:"questions"`
}

// AccountRef identifies one account inside a duplicate group.
type AccountRef struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	CreatedAt time.Time `json:"createdAt"`
}

// DuplicateGroup lists accounts sharing Key, oldest first.
type DuplicateGroup struct {
	Key      string       `json:"key"`
	Accounts []AccountRef `json:"accounts"`
}

type DuplicateReport struct {
	Email []DuplicateGroup `json:"email"`
	CPF   []DuplicateGroup `json:"cpf"`
}

type CanonicalizeResult struct {
	Updated int `json:"updated"`
	// Conflicts holds stored values whose canonical form belongs to another
	// account; the duplicate cleanup resolves them.
	Conflicts []string `json:"conflicts"`
}
