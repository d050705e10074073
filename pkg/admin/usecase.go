package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
	"github.com/lexaprendiz/lexaprendiz/pkg/metrics"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
)

// UseCase is the administrative surface.
type UseCase interface {
	Stats(ctx context.Context) (Stats, error)
	Users(ctx context.Context, search string, page int) (UserPage, error)
	UserDetail(ctx context.Context, id uuid.UUID) (UserDetail, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	Duplicates(ctx context.Context) (DuplicateReport, error)
	CleanupDuplicates(ctx context.Context) (int, error)
	CanonicalizeCPFs(ctx context.Context) (CanonicalizeResult, error)
}

type service struct {
	repo      Repository
	questions qa.Repository
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewService(repo Repository, questions qa.Repository, log *zap.Logger, m *metrics.Metrics) UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{repo: repo, questions: questions, log: log, metrics: m}
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountUsers(gctx)
		st.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUsersWithProfile(gctx)
		st.UsersWithProfile = n
		return err
	})
	g.Go(func() error {
		users, err := s.repo.RecentUsers(gctx, 10)
		st.RecentUsers = users
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	if st.RecentUsers == nil {
		st.RecentUsers = []auth.User{}
	}
	return st, nil
}

func (s *service) Users(ctx context.Context, search string, page int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	search = strings.TrimSpace(search)
	q := UserQuery{Search: search, Limit: PageSize, Offset: (page - 1) * PageSize}
	// "529.982" and "529982" should find the same accounts
	if digits := cpf.Normalize(search); len(digits) >= 3 {
		q.CPFDigits = digits
	}
	users, total, err := s.repo.SearchUsers(ctx, q)
	if err != nil {
		return UserPage{}, err
	}
	if users == nil {
		users = []auth.User{}
	}
	return UserPage{
		Users:   users,
		Total:   total,
		Page:    page,
		Pages:   (total + PageSize - 1) / PageSize,
		PerPage: PageSize,
		Search:  search,
	}, nil
}

func (s *service) UserDetail(ctx context.Context, id uuid.UUID) (UserDetail, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	questions, err := s.questions.ListByUser(ctx, id, "", 10, 0)
	if err != nil {
		return UserDetail{}, err
	}
	if questions == nil {
		questions = []qa.Question{}
	}
	return UserDetail{User: user, Questions: questions}, nil
}

var csvHeader = []string{"id", "nome", "email", "cpf", "cidade", "estado", "cep", "endereco", "numero", "complemento", "bairro"}

// ExportCSV streams every account to w, oldest first.
func (s *service) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	err := s.repo.EachUser(ctx, func(u auth.User) error {
		return cw.Write([]string{
			u.ID.String(), u.Name, u.Email, u.CPF, u.City, u.State,
			u.CEP, u.Address, u.Number, u.Complement, u.Neighborhood,
		})
	})
	if err != nil {
		return fmt.Errorf("export users: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func (s *service) allUsers(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	err := s.repo.EachUser(ctx, func(u auth.User) error {
		users = append(users, u)
		return nil
	})
	return users, err
}

func (s *service) Duplicates(ctx context.Context) (DuplicateReport, error) {
	users, err := s.allUsers(ctx)
	if err != nil {
		return DuplicateReport{}, err
	}
	return DuplicateReport{
		Email: groupBy(users, emailKey),
		CPF:   groupBy(users, cpfKey),
	}, nil
}

// CleanupDuplicates keeps the oldest account of every group. Email groups are
// resolved first; CPF groups are then computed over the survivors.
func (s *service) CleanupDuplicates(ctx context.Context) (int, error) {
	users, err := s.allUsers(ctx)
	if err != nil {
		return 0, err
	}
	doomed := losers(groupBy(users, emailKey))
	survivors := users[:0:0]
	for _, u := range users {
		if !doomed[u.ID] {
			survivors = append(survivors, u)
		}
	}
	for id := range losers(groupBy(survivors, cpfKey)) {
		doomed[id] = true
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(doomed))
	for id := range doomed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	removed, err := s.repo.DeleteUsers(ctx, ids)
	if err != nil {
		s.log.Error("duplicate cleanup failed", zap.Int("candidates", len(ids)), zap.Error(err))
		return 0, err
	}
	s.metrics.DuplicatesRemoved(removed)
	s.log.Info("duplicate cleanup done", zap.Int("removed", removed))
	return removed, nil
}

// CanonicalizeCPFs rewrites digits-only CPFs into "000.000.000-00". A row is
// skipped when its canonical form is already stored for another account.
func (s *service) CanonicalizeCPFs(ctx context.Context) (CanonicalizeResult, error) {
	users, err := s.allUsers(ctx)
	if err != nil {
		return CanonicalizeResult{}, err
	}
	stored := make([]string, len(users))
	for i, u := range users {
		stored[i] = u.CPF
	}
	rewrites, conflicts := cpf.PlanCanonical(stored)

	res := CanonicalizeResult{Conflicts: append([]string{}, conflicts...)}
	updates := make(map[uuid.UUID]string, len(rewrites))
	for _, rw := range rewrites {
		updates[users[rw.Index].ID] = rw.To
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateCPFs(ctx, updates); err != nil {
			return CanonicalizeResult{}, err
		}
	}
	res.Updated = len(updates)
	s.log.Info("cpf canonicalization done", zap.Int("updated", res.Updated), zap.Int("conflicts", len(res.Conflicts)))
	return res, nil
}

func emailKey(u auth.User) string { return auth.NormalizeEmail(u.Email) }

// cpfKey groups both stored representations of the same CPF together.
func cpfKey(u auth.User) string { return cpf.Normalize(u.CPF) }

// groupBy returns groups with more than one account. users must be oldest first.
func groupBy(users []auth.User, key func(auth.User) string) []DuplicateGroup {
	byKey := make(map[string][]AccountRef)
	var order []string
	for _, u := range users {
		k := key(u)
		if k == "" {
			continue
		}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], AccountRef{ID: u.ID, Email: u.Email, CPF: u.CPF, CreatedAt: u.CreatedAt})
	}
	groups := []DuplicateGroup{}
	for _, k := range order {
		if refs := byKey[k]; len(refs) > 1 {
			groups = append(groups, DuplicateGroup{Key: k, Accounts: refs})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func losers(groups []DuplicateGroup) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, g := range groups {
		for _, ref := range g.Accounts[1:] {
			out[ref.ID] = true
		}
	}
	return out
}
