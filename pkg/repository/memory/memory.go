// Package memory keeps accounts and questions in process memory. It backs
// the server when no DATABASE_URL is configured and the use case tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
)

// Store holds both tables so deleting an account can drop its questions.
type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]auth.User
	questions map[uuid.UUID]qa.Question
}

func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]auth.User),
		questions: make(map[uuid.UUID]qa.Question),
	}
}

// Users returns the account repository.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Questions returns the question repository.
func (s *Store) Questions() *QuestionRepo { return &QuestionRepo{s: s} }

// UserRepo enforces the same uniqueness the database does: email
// case-insensitively and the stored CPF value exactly.
type UserRepo struct {
	s *Store
}

var (
	_ auth.UserRepository = (*UserRepo)(nil)
	_ admin.Repository    = (*UserRepo)(nil)
	_ qa.Repository       = (*QuestionRepo)(nil)
)

// conflict reports which unique key u would break. Caller holds the lock.
func (s *Store) conflict(u auth.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return auth.ErrDuplicateEmail
		}
		if u.CPF != "" && other.CPF == u.CPF {
			return auth.ErrDuplicateTaxpayerID
		}
	}
	return nil
}

func (r *UserRepo) Create(ctx context.Context, u auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return auth.ErrUserAlreadyExists
	}
	if err := r.s.conflict(u); err != nil {
		return err
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (r *UserRepo) GetByCPF(ctx context.Context, value string) (auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if value == "" {
		return auth.User{}, auth.ErrNotFound
	}
	for _, u := range r.s.users {
		if u.CPF == value {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return auth.ErrNotFound
	}
	if err := r.s.conflict(u); err != nil {
		return err
	}
	// credentials and identity are not part of the profile
	u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt = cur.Email, cur.PasswordHash, cur.IsAdmin, cur.CreatedAt
	r.s.users[u.ID] = u
	return nil
}

// sorted returns every account, oldest first. Caller holds the lock.
func (s *Store) sorted() []auth.User {
	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *UserRepo) CountUsersWithProfile(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.users {
		if u.HasProfile() {
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) RecentUsers(ctx context.Context, limit int) ([]auth.User, error) {
	r.s.mu.RLock()
	all := r.s.sorted()
	r.s.mu.RUnlock()
	out := make([]auth.User, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// SearchUsers lists matches newest first.
func (r *UserRepo) SearchUsers(ctx context.Context, q admin.UserQuery) ([]auth.User, int, error) {
	r.s.mu.RLock()
	all := r.s.sorted()
	r.s.mu.RUnlock()

	term := strings.ToLower(q.Search)
	var hits []auth.User
	for i := len(all) - 1; i >= 0; i-- {
		u := all[i]
		if term == "" || matches(u, term, q.CPFDigits) {
			hits = append(hits, u)
		}
	}
	total := len(hits)
	if q.Offset >= total {
		return []auth.User{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return hits[q.Offset:end], total, nil
}

func matches(u auth.User, term, digits string) bool {
	if strings.Contains(strings.ToLower(u.Name), term) ||
		strings.Contains(strings.ToLower(u.Email), term) ||
		strings.Contains(strings.ToLower(u.CPF), term) {
		return true
	}
	return digits != "" && strings.Contains(cpf.Normalize(u.CPF), digits)
}

func (r *UserRepo) EachUser(ctx context.Context, fn func(auth.User) error) error {
	r.s.mu.RLock()
	all := r.s.sorted()
	r.s.mu.RUnlock()
	for _, u := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) DeleteUsers(ctx context.Context, ids []uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doomed := make(map[uuid.UUID]bool, len(ids))
	n := 0
	for _, id := range ids {
		if _, ok := r.s.users[id]; ok {
			delete(r.s.users, id)
			doomed[id] = true
			n++
		}
	}
	for qid, q := range r.s.questions {
		if doomed[q.UserID] {
			delete(r.s.questions, qid)
		}
	}
	return n, nil
}

// UpdateCPFs applies every change or none.
func (r *UserRepo) UpdateCPFs(ctx context.Context, cpfs map[uuid.UUID]string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := make(map[uuid.UUID]auth.User, len(r.s.users))
	for id, u := range r.s.users {
		if v, ok := cpfs[id]; ok {
			u.CPF = v
		}
		next[id] = u
	}
	seen := make(map[string]bool, len(next))
	for _, u := range next {
		if u.CPF == "" {
			continue
		}
		if seen[u.CPF] {
			return auth.ErrDuplicateTaxpayerID
		}
		seen[u.CPF] = true
	}
	r.s.users = next
	return nil
}

type QuestionRepo struct {
	s *Store
}

func (r *QuestionRepo) Create(ctx context.Context, q qa.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[q.UserID]; !ok {
		return auth.ErrNotFound
	}
	r.s.questions[q.ID] = q
	return nil
}

func (r *QuestionRepo) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]qa.Question, error) {
	r.s.mu.RLock()
	var out []qa.Question
	term := strings.ToLower(search)
	for _, q := range r.s.questions {
		if q.UserID != userID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(q.Content), term) &&
			!strings.Contains(strings.ToLower(q.Response), term) {
			continue
		}
		out = append(out, q)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if offset >= len(out) {
		return []qa.Question{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
