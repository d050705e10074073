// @title         LexAprendiz API
// @version       1.0
// @description   Consultoria sobre a Lei da Aprendizagem com cadastro por CPF, histórico de perguntas e painel administrativo.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Token de autorização. Formatos aceitos: "Bearer <JWT>" ou "<JWT>".
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/lexaprendiz/lexaprendiz/api/http"
	"github.com/lexaprendiz/lexaprendiz/api/http/handlers"
	_ "github.com/lexaprendiz/lexaprendiz/docs"
	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
	"github.com/lexaprendiz/lexaprendiz/pkg/config"
	"github.com/lexaprendiz/lexaprendiz/pkg/health"
	healthpg "github.com/lexaprendiz/lexaprendiz/pkg/health/checkers"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm/gemini"
	"github.com/lexaprendiz/lexaprendiz/pkg/llm/openai"
	"github.com/lexaprendiz/lexaprendiz/pkg/logger"
	"github.com/lexaprendiz/lexaprendiz/pkg/metrics"
	"github.com/lexaprendiz/lexaprendiz/pkg/qa"
	"github.com/lexaprendiz/lexaprendiz/pkg/repository/memory"
	pgrepo "github.com/lexaprendiz/lexaprendiz/pkg/repository/postgres"
	"github.com/lexaprendiz/lexaprendiz/pkg/security/jwt"
	"github.com/lexaprendiz/lexaprendiz/pkg/security/revocation"
	"github.com/lexaprendiz/lexaprendiz/pkg/storage/postgres"
)

// provider is what the service needs from a language model backend.
type provider interface {
	llm.ChatModel
	llm.Pinger
}

type accountStore interface {
	auth.UserRepository
	admin.Repository
}

type revocationList interface {
	auth.TokenRevoker
	jwt.RevocationChecker
}

func main() {
	// Load configuration from env/.env
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		users     accountStore
		questions qa.Repository
		checkers  []health.Checker
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		users = pgrepo.NewUserRepository(pool)
		questions = pgrepo.NewQuestionRepository(pool)
		checkers = append(checkers, healthpg.NewPostgresChecker(pool))
	} else {
		log.Warn("DATABASE_URL is not set, accounts are kept in memory")
		store := memory.New()
		users = store.Users()
		questions = store.Questions()
	}

	var revoked revocationList = revocation.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		rs := revocation.NewRedisStore(client)
		revoked = rs
		checkers = append(checkers, rs)
	}

	model, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	// Token generator
	jwtGen := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	authUC := auth.NewAuthService(users, jwtGen,
		auth.WithRequiredFields(cfg.RequiredFields),
		auth.WithRevoker(revoked),
		auth.WithAdmin(auth.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}),
		auth.WithLogger(log),
		auth.WithMetrics(m),
	)

	h := apihttp.Handlers{
		Auth:      handlers.NewAuthHandler(authUC, log),
		Profile:   handlers.NewProfileHandler(auth.NewProfileService(users), log),
		Questions: handlers.NewQuestionHandler(qa.NewService(questions, model, cfg.SystemPrompt, log, m)),
		Admin:     handlers.NewAdminHandler(admin.NewService(users, questions, log, m), log),
		Health:    handlers.NewHealthHandler(health.NewService(checkers...), model),
	}
	app := apihttp.NewApp(apihttp.AppOptions{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    reg,
		Swagger:     true,
	})
	authMW := jwt.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer, revoked, log)
	apihttp.Register(app, h, authMW)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("port", cfg.Port), zap.String("llm", cfg.LLMProvider))
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newProvider(ctx context.Context, cfg config.Config) (provider, error) {
	if cfg.LLMProvider == "gemini" {
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OpenAIMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return c, nil
	}
	return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIMaxTokens), nil
}
