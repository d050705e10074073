package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apihttp "github.com/lexaprendiz/lexaprendiz/api/http"
	"github.com/lexaprendiz/lexaprendiz/api/http/handlers"
	"github.com/lexaprendiz/lexaprendiz/api/http/presenter"
	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/health"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
	"github.com/lexaprendiz/lexaprendiz/pkg/metrics"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
	"github.com/lexaprendiz/lexaprendiz/pkg/repository/memory"
	jwtsec "github.com/lexaprendiz/lexaprendiz/pkg/security/jwt"
	"github.com/lexaprendiz/lexaprendiz/pkg/security/revocation"
)

const (
	secret = "test-secret"
	issuer = "lexaprendiz"
)

type fakeModel struct {
	answer string
	err    error
}

func (m *fakeModel) Ask(context.Context, string, string) (string, error) { return m.answer, m.err }
func (m *fakeModel) Ping(context.Context) error                          { return m.err }

// brokenLookups fails every read the duplicate resolver makes.
type brokenLookups struct {
	*memory.UserRepo
}

func (brokenLookups) GetByEmail(context.Context, string) (auth.User, error) {
	return auth.User{}, errors.New("connection refused")
}

type server struct {
	app   *fiber.App
	store *memory.Store
	model *fakeModel
}

func newServer(t *testing.T, users auth.UserRepository, store *memory.Store) *server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	model := &fakeModel{answer: "A idade mínima é 14 anos."}
	tokens := jwtsec.NewGenerator(secret, issuer, time.Hour)
	revoked := revocation.NewMemoryStore()

	authUC := auth.NewAuthService(users, tokens,
		auth.WithHasher(auth.BcryptHasher{Cost: bcrypt.MinCost}),
		auth.WithRevoker(revoked),
		auth.WithAdmin(auth.AdminCredentials{Username: "admin", Password: "admin123"}),
		auth.WithMetrics(m),
	)
	h := apihttp.Handlers{
		Auth:      handlers.NewAuthHandler(authUC, nil),
		Profile:   handlers.NewProfileHandler(auth.NewProfileService(users), nil),
		Questions: handlers.NewQuestionHandler(qa.NewService(store.Questions(), model, "", nil, m)),
		Admin:     handlers.NewAdminHandler(admin.NewService(store.Users(), store.Questions(), nil, m), nil),
		Health:    handlers.NewHealthHandler(health.NewService(), model),
	}
	app := apihttp.NewApp(apihttp.AppOptions{Gatherer: reg})
	apihttp.Register(app, h, jwtsec.NewAuthMiddleware(secret, issuer, revoked, nil))
	return &server{app: app, store: store, model: model}
}

func newDefaultServer(t *testing.T) *server {
	store := memory.New()
	return newServer(t, store.Users(), store)
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

type authBody struct {
	User  auth.User `json:"user"`
	Token string    `json:"token"`
}

func (s *server) register(t *testing.T, email, cpf string) (*http.Response, []byte) {
	return s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "s3cret", "name": "Fulano", "cpf": cpf,
	})
}

func TestRegister_DuplicateAcrossRepresentations(t *testing.T) {
	s := newDefaultServer(t)

	resp, body := s.register(t, "a@x.com", "529.982.247-25")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[authBody](t, body)
	assert.Equal(t, "529.982.247-25", created.User.CPF)
	assert.NotEmpty(t, created.Token)
	assert.NotContains(t, string(body), "s3cret")

	resp, body = s.register(t, "b@x.com", "52998224725")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decode[presenter.ErrorResponse](t, body)
	assert.Equal(t, "DuplicateTaxpayerId", e.Code)
	assert.Equal(t, "cpf", e.Field)

	resp, body = s.register(t, "A@X.com", "111.444.777-35")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DuplicateEmail", decode[presenter.ErrorResponse](t, body).Code)

	n, err := s.store.Users().CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newDefaultServer(t)
	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
		field  string
	}{
		{"ten digits", map[string]string{"email": "a@x.com", "password": "p", "name": "n", "cpf": "5299822472"}, http.StatusBadRequest, "MalformedTaxpayerId", "cpf"},
		{"bad checksum", map[string]string{"email": "a@x.com", "password": "p", "name": "n", "cpf": "529.982.247-26"}, http.StatusBadRequest, "InvalidTaxpayerId", "cpf"},
		{"missing name", map[string]string{"email": "a@x.com", "password": "p", "cpf": "52998224725"}, http.StatusBadRequest, "MissingField", "name"},
		{"missing cpf", map[string]string{"email": "a@x.com", "password": "p", "name": "n"}, http.StatusBadRequest, "MissingField", "cpf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			e := decode[presenter.ErrorResponse](t, body)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.field, e.Field)
			assert.NotEmpty(t, e.Message)
		})
	}

	resp, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckDuplicates(t *testing.T) {
	s := newDefaultServer(t)
	resp, _ := s.register(t, "a@x.com", "52998224725")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name        string
		query       url.Values
		emailExists bool
		cpfExists   bool
	}{
		{"cpf in other representation", url.Values{"email": {"new@x.com"}, "cpf": {"529.982.247-25"}}, false, true},
		{"email in other case", url.Values{"email": {"A@X.com"}}, true, false},
		{"both taken", url.Values{"email": {"a@x.com"}, "cpf": {"52998224725"}}, true, true},
		{"free", url.Values{"email": {"new@x.com"}, "cpf": {"111.444.777-35"}}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodGet, "/api/v1/auth/check-duplicates?"+tt.query.Encode(), "", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			rep := decode[auth.DuplicateReport](t, body)
			assert.Equal(t, tt.emailExists, rep.EmailExists)
			assert.Equal(t, tt.cpfExists, rep.CPFExists)
			assert.Equal(t, !tt.emailExists && !tt.cpfExists, rep.CanRegister)
		})
	}
}

func TestStorageFailureIsNotReportedAsDuplicate(t *testing.T) {
	store := memory.New()
	s := newServer(t, brokenLookups{store.Users()}, store)

	resp, body := s.do(t, http.MethodGet, "/api/v1/auth/check-duplicates?email=a%40x.com", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "StorageFailure", decode[presenter.ErrorResponse](t, body).Code)

	resp, body = s.register(t, "a@x.com", "52998224725")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "StorageFailure", decode[presenter.ErrorResponse](t, body).Code)
}

func TestSessionFlow(t *testing.T) {
	s := newDefaultServer(t)
	resp, _ := s.register(t, "a@x.com", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "cpf is required by default")
	resp, _ = s.register(t, "a@x.com", "52998224725")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "A@x.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decode[authBody](t, body).Token

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodPut, "/api/v1/profile", token, map[string]string{
		"name": "Ana", "city": "Recife", "state": "pe", "cep": "50030230",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "PE", decode[auth.User](t, body).State)

	resp, body = s.do(t, http.MethodPut, "/api/v1/profile", token, map[string]string{"name": "Ana", "cpf": "111.444.777-35"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "TaxpayerIdImmutable", decode[presenter.ErrorResponse](t, body).Code)

	resp, body = s.do(t, http.MethodPost, "/api/v1/questions", token, map[string]string{"pergunta": "Qual a idade mínima?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "A idade mínima é 14 anos.", decode[qa.Question](t, body).Response)

	resp, body = s.do(t, http.MethodGet, "/api/v1/questions?search=idade", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]qa.Question](t, body), 1)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAsk_LLMFailures(t *testing.T) {
	s := newDefaultServer(t)
	_, body := s.register(t, "a@x.com", "52998224725")
	token := decode[authBody](t, body).Token

	tests := []struct {
		err    error
		status int
	}{
		{&llm.UpstreamError{Provider: "openai", StatusCode: 429}, http.StatusTooManyRequests},
		{llm.ErrNotConfigured, http.StatusServiceUnavailable},
		{&llm.UpstreamError{Provider: "openai", StatusCode: 500}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		s.model.err = tt.err
		resp, _ := s.do(t, http.MethodPost, "/api/v1/questions", token, map[string]string{"question": "oi"})
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
	}

	s.model.err = nil
	resp, _ := s.do(t, http.MethodPost, "/api/v1/questions", token, map[string]string{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/v1/questions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]qa.Question](t, body))
}

func TestAdminRoutes(t *testing.T) {
	s := newDefaultServer(t)
	_, body := s.register(t, "a@x.com", "52998224725")
	userToken := decode[authBody](t, body).Token

	resp, _ := s.do(t, http.MethodGet, "/api/v1/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, body = s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminToken := decode[map[string]string](t, body)["token"]

	resp, body = s.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[admin.Stats](t, body).TotalUsers)

	resp, body = s.do(t, http.MethodGet, "/api/v1/admin/users?search=529.982", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[admin.UserPage](t, body).Total)

	resp, body = s.do(t, http.MethodGet, "/api/v1/admin/export/users.csv", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), handlers.ExportFilename)
	assert.True(t, strings.HasPrefix(string(body), "id,nome,email,cpf,cidade,estado,cep,endereco,numero,complemento,bairro\n"))

	resp, body = s.do(t, http.MethodPost, "/api/v1/admin/duplicates/cleanup", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[map[string]int](t, body)["removed"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/admin/users/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the environment admin has no account of its own
	resp, _ = s.do(t, http.MethodGet, "/api/v1/profile", adminToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthRoutes(t *testing.T) {
	s := newDefaultServer(t)
	resp, _ := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		err    error
		status int
		label  string
	}{
		{nil, http.StatusOK, "ok"},
		{llm.ErrNotConfigured, http.StatusOK, "no-key"},
		{&llm.UpstreamError{StatusCode: 401}, http.StatusUnauthorized, "invalid-api-key"},
		{&llm.UpstreamError{StatusCode: 429}, http.StatusTooManyRequests, "quota-exceeded"},
		{errors.New("dns"), http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		s.model.err = tt.err
		resp, body := s.do(t, http.MethodGet, "/api/v1/health/ai", "", nil)
		assert.Equal(t, tt.status, resp.StatusCode)
		assert.Equal(t, tt.label, decode[map[string]any](t, body)["status"])
	}

	s.model.err = nil
	resp, body := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lexaprendiz_duplicate_accounts_removed_total")
}
