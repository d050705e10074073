//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
	"github.com/lexaprendiz/lexaprendiz/pkg/repository/postgres"
	storage "github.com/lexaprendiz/lexaprendiz/pkg/storage/postgres"
)

type PostgresSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	users     *postgres.UserRepository
	questions *postgres.QuestionRepository
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	c, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("lexaprendiz"),
		tcpostgres.WithUsername("lex"),
		tcpostgres.WithPassword("lex"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = c

	dsn, err := c.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.pool, err = storage.Connect(s.ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(storage.Migrate(s.ctx, s.pool))

	s.users = postgres.NewUserRepository(s.pool)
	s.questions = postgres.NewQuestionRepository(s.pool)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE users CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) newUser(email, cpf string) auth.User {
	return auth.User{ID: uuid.New(), Email: email, CPF: cpf, PasswordHash: "h", CreatedAt: time.Now().UTC()}
}

func (s *PostgresSuite) TestMigrationVersion() {
	v, err := storage.MigrationVersion(s.ctx, s.pool)
	s.Require().NoError(err)
	s.Equal(int64(3), v)
}

func (s *PostgresSuite) TestUniqueConstraints() {
	s.Require().NoError(s.users.Create(s.ctx, s.newUser("a@x.com", "529.982.247-25")))

	s.ErrorIs(s.users.Create(s.ctx, s.newUser("A@X.com", "")), auth.ErrDuplicateEmail)
	s.ErrorIs(s.users.Create(s.ctx, s.newUser("b@x.com", "529.982.247-25")), auth.ErrDuplicateTaxpayerID)
	s.NoError(s.users.Create(s.ctx, s.newUser("c@x.com", "")))
	s.NoError(s.users.Create(s.ctx, s.newUser("d@x.com", "")))

	_, err := s.users.GetByCPF(s.ctx, "52998224725")
	s.ErrorIs(err, auth.ErrNotFound)
	got, err := s.users.GetByCPF(s.ctx, "529.982.247-25")
	s.Require().NoError(err)
	s.Equal("a@x.com", got.Email)
}

func (s *PostgresSuite) TestConcurrentRegistrationSameCPF() {
	svc := auth.NewAuthService(s.users, tokenStub{}, auth.WithHasher(auth.BcryptHasher{Cost: bcrypt.MinCost}))
	inputs := []string{"529.982.247-25", "52998224725", "529982247-25", "529.982.24725", "529 982 247 25"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i, raw := range inputs {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			_, err := svc.Register(s.ctx, auth.RegisterInput{Email: uuid.NewString() + "@x.com", Password: "p", Name: "n", CPF: raw})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, auth.ErrDuplicateTaxpayerID)
		}(i, raw)
	}
	wg.Wait()
	s.Equal(1, ok)

	n, err := s.users.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresSuite) TestAdminQueries() {
	a := s.newUser("ana@x.com", "529.982.247-25")
	a.Name = "Ana"
	s.Require().NoError(s.users.Create(s.ctx, a))
	b := s.newUser("bia@x.com", "11144477735")
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	s.Require().NoError(s.users.Create(s.ctx, b))

	users, total, err := s.users.SearchUsers(s.ctx, admin.UserQuery{Search: "111.444", CPFDigits: "111444", Limit: 20})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(b.ID, users[0].ID)

	withProfile, err := s.users.CountUsersWithProfile(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, withProfile)

	s.Require().NoError(s.users.UpdateCPFs(s.ctx, map[uuid.UUID]string{b.ID: "111.444.777-35"}))
	got, err := s.users.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("111.444.777-35", got.CPF)

	s.ErrorIs(s.users.UpdateCPFs(s.ctx, map[uuid.UUID]string{b.ID: "529.982.247-25"}), auth.ErrDuplicateTaxpayerID)
}

func (s *PostgresSuite) TestQuestionsCascade() {
	u := s.newUser("a@x.com", "")
	s.Require().NoError(s.users.Create(s.ctx, u))
	s.Require().NoError(s.questions.Create(s.ctx, qa.Question{
		ID: uuid.New(), UserID: u.ID, Content: "Quem pode ser aprendiz?", Response: "Jovens de 14 a 24 anos.", CreatedAt: time.Now().UTC(),
	}))
	s.ErrorIs(s.questions.Create(s.ctx, qa.Question{ID: uuid.New(), UserID: uuid.New(), CreatedAt: time.Now()}), auth.ErrNotFound)

	hits, err := s.questions.ListByUser(s.ctx, u.ID, "JOVENS", 10, 0)
	s.Require().NoError(err)
	s.Len(hits, 1)

	n, err := s.users.DeleteUsers(s.ctx, []uuid.UUID{u.ID})
	s.Require().NoError(err)
	s.Equal(1, n)
	hits, err = s.questions.ListByUser(s.ctx, u.ID, "", 10, 0)
	s.Require().NoError(err)
	s.Empty(hits)
}

// insertRaw writes a row the way older clients did, bypassing the repository.
func (s *PostgresSuite) insertRaw(email, cpf string, createdAt time.Time) uuid.UUID {
	id := uuid.New()
	var stored any
	if cpf != "" {
		stored = cpf
	}
	_, err := s.pool.Exec(s.ctx, `INSERT INTO users (id, email, password_hash, cpf, created_at) VALUES ($1, $2, 'h', $3, $4)`,
		id, email, stored, createdAt)
	s.Require().NoError(err)
	return id
}

func (s *PostgresSuite) cpfOf(id uuid.UUID) string {
	u, err := s.users.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return u.CPF
}

func (s *PostgresSuite) TestCanonicalCPFMigration() {
	_, err := s.pool.Exec(s.ctx, `DROP TABLE questions, users, goose_db_version`)
	s.Require().NoError(err)
	s.Require().NoError(storage.MigrateTo(s.ctx, s.pool, 2))

	t0 := time.Now().UTC().Add(-time.Hour)
	owner := s.insertRaw("owner@x.com", "529.982.247-25", t0)
	clash := s.insertRaw("clash@x.com", "52998224725", t0.Add(time.Minute))
	legacy := s.insertRaw("legacy@x.com", "11144477735", t0.Add(2*time.Minute))
	none := s.insertRaw("none@x.com", "", t0.Add(3*time.Minute))

	s.Require().NoError(storage.Migrate(s.ctx, s.pool))
	v, err := storage.MigrationVersion(s.ctx, s.pool)
	s.Require().NoError(err)
	s.Equal(int64(3), v)

	s.Equal("529.982.247-25", s.cpfOf(owner))
	s.Equal("52998224725", s.cpfOf(clash), "canonical form already held by another row")
	s.Equal("111.444.777-35", s.cpfOf(legacy))
	s.Equal("", s.cpfOf(none))
}

func (s *PostgresSuite) TestRegisterAgainstLegacyDigitsRow() {
	s.insertRaw("legacy@x.com", "52998224725", time.Now().UTC())
	svc := auth.NewAuthService(s.users, tokenStub{}, auth.WithHasher(auth.BcryptHasher{Cost: bcrypt.MinCost}))

	_, err := svc.Register(s.ctx, auth.RegisterInput{Email: "new@x.com", Password: "p", Name: "n", CPF: "529.982.247-25"})
	s.ErrorIs(err, auth.ErrDuplicateTaxpayerID)

	n, err := s.users.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresSuite) TestEmailIsCaseInsensitive() {
	id := s.insertRaw("Ana.Silva@X.com", "", time.Now().UTC())

	got, err := s.users.GetByEmail(s.ctx, "ana.silva@x.com")
	s.Require().NoError(err)
	s.Equal(id, got.ID)

	s.ErrorIs(s.users.Create(s.ctx, s.newUser("ANA.SILVA@x.com", "")), auth.ErrDuplicateEmail)
}

func (s *PostgresSuite) TestSearchIsLiteral() {
	a := s.newUser("a@x.com", "")
	a.Name = "ana_1"
	s.Require().NoError(s.users.Create(s.ctx, a))
	b := s.newUser("b@x.com", "")
	b.Name = "Bruno"
	s.Require().NoError(s.users.Create(s.ctx, b))

	users, total, err := s.users.SearchUsers(s.ctx, admin.UserQuery{Search: "_", Limit: 20})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(a.ID, users[0].ID)

	_, total, err = s.users.SearchUsers(s.ctx, admin.UserQuery{Search: "%", Limit: 20})
	s.Require().NoError(err)
	s.Zero(total)

	_, total, err = s.users.SearchUsers(s.ctx, admin.UserQuery{Search: "BRUNO", Limit: 20})
	s.Require().NoError(err)
	s.Equal(1, total)

	q := qa.Question{ID: uuid.New(), UserID: a.ID, Content: "Quem pode ser aprendiz?", Response: "Jovens.", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.questions.Create(s.ctx, q))
	hits, err := s.questions.ListByUser(s.ctx, a.ID, "%", 10, 0)
	s.Require().NoError(err)
	s.Empty(hits)
}

type tokenStub struct{}

func (tokenStub) Generate(context.Context, auth.Principal) (string, error) { return "t", nil }
