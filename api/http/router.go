package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexaprendiz/lexaprendiz/api/http/handlers"
	"github.com/lexaprendiz/lexaprendiz/pkg/logger"
	jwtsec "github.com/lexaprendiz/lexaprendiz/pkg/security/jwt"
)

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Questions *handlers.QuestionHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler
}

// AppOptions configures the Fiber application around the routes.
type AppOptions struct {
	Log         *zap.Logger
	CORSOrigins string
	Gatherer    prometheus.Gatherer
	Swagger     bool
}

// NewApp builds the Fiber app with recovery, CORS, request logging, the
// metrics endpoint and, optionally, Swagger UI.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lexaprendiz",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if opts.Log != nil {
		app.Use(logger.Middleware(opts.Log))
	}
	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.Swagger {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}
	return app
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, h Handlers, authMW fiber.Handler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/health/ai", h.Health.AI)
	v1.Get("/ready", h.Health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", h.Auth.Register)
	a.Post("/login", h.Auth.Login)
	a.Get("/check-duplicates", h.Auth.CheckDuplicates)
	a.Post("/logout", authMW, h.Auth.Logout)

	v1.Get("/profile", authMW, h.Profile.Get)
	v1.Put("/profile", authMW, h.Profile.Update)

	q := v1.Group("/questions", authMW)
	q.Post("/", h.Questions.Ask)
	q.Get("/", h.Questions.History)

	v1.Post("/admin/login", h.Auth.AdminLogin)
	adm := v1.Group("/admin", authMW, jwtsec.RequireAdmin())
	adm.Get("/stats", h.Admin.Stats)
	adm.Get("/users", h.Admin.Users)
	adm.Get("/users/:id", h.Admin.User)
	adm.Get("/export/users.csv", h.Admin.ExportCSV)
	adm.Get("/duplicates", h.Admin.Duplicates)
	adm.Post("/duplicates/cleanup", h.Admin.CleanupDuplicates)
	adm.Post("/cpf/canonicalize", h.Admin.CanonicalizeCPFs)
}
