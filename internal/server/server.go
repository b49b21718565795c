// Package server exposes the ThreadSpire actions and views as a local JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"threadspire/internal/config"
	"threadspire/internal/featureflags"
	"threadspire/internal/middleware"
	"threadspire/internal/models"
	"threadspire/internal/observability"
	"threadspire/internal/service"
	"threadspire/internal/state"
	"threadspire/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// fiberprometheus registers its collectors globally, so one instance is shared.
var promMiddleware = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.NewWith("threadspire-api", "threadspire", "http")
})

// Deps are the collaborators the server is built from.
type Deps struct {
	Config      *config.Config
	Store       *state.Store
	Backend     storage.Backend
	Redis       *redis.Client // optional, rate limiting
	Auth        *service.AuthService
	Threads     *service.ThreadService
	Collections *service.CollectionService
	Flags       *featureflags.Manager
}

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	store        *state.Store
	backend      storage.Backend
	redis        *redis.Client
	auth         *service.AuthService
	threads      *service.ThreadService
	collections  *service.CollectionService
	featureFlags *featureflags.Manager
	jwt          *middleware.JWTAuth
	prom         *fiberprometheus.FiberPrometheus
	app          *fiber.App
	now          func() time.Time
}

// NewServer creates a server with its middleware and routes installed.
func NewServer(d Deps) *Server {
	s := &Server{
		config:       d.Config,
		store:        d.Store,
		backend:      d.Backend,
		redis:        d.Redis,
		auth:         d.Auth,
		threads:      d.Threads,
		collections:  d.Collections,
		featureFlags: d.Flags,
		prom:         promMiddleware(),
		now:          time.Now,
	}
	s.jwt = middleware.NewJWTAuth(d.Config.JWTSecret, 0, func() *models.User {
		return s.store.Snapshot().User
	})

	s.app = fiber.New(fiber.Config{
		AppName:      "ThreadSpire API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: httpCode(fe.Code), Message: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeNotAuthenticated
	case fiber.StatusForbidden:
		return models.CodeForbidden
	default:
		return models.CodeInternal
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(s.prom.Middleware)
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := strings.Join(s.config.Origins(), ",")
	if origins == "" {
		origins = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	s.prom.RegisterAt(app, "/metrics")

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.jwt.Required(), s.Logout)
	auth.Get("/session", s.GetSession)

	// Public thread routes. Specific paths go before /:id.
	threads := api.Group("/threads")
	threads.Get("/", s.ListThreads)
	threads.Get("/tags", s.ListTags)
	threads.Post("/:id/view", s.jwt.Optional(), s.ViewThread)
	threads.Get("/:id", s.jwt.Optional(), s.GetThread)

	protected := api.Group("", s.jwt.Required())

	myThreads := protected.Group("/threads")
	myThreads.Post("/", s.CreateThread)
	myThreads.Post("/:id/publish", s.PublishThread)
	myThreads.Post("/:id/fork", s.flagRequired(featureflags.Forking), s.ForkThread)
	myThreads.Post("/:id/bookmark", s.BookmarkThread)
	myThreads.Post("/:id/segments/:segmentId/reactions", s.ReactToSegment)
	myThreads.Patch("/:id", s.UpdateThread)
	myThreads.Delete("/:id", s.DeleteThread)

	me := protected.Group("/me")
	me.Get("/drafts", s.GetDrafts)
	me.Get("/profile", s.GetProfile)
	me.Get("/bookmarks", s.GetBookmarks)
	me.Get("/analytics", s.flagRequired(featureflags.Analytics), s.GetAnalytics)

	collections := protected.Group("/collections")
	collections.Get("/", s.ListCollections)
	collections.Post("/", s.CreateCollection)
	collections.Get("/:id/threads", s.GetCollectionThreads)
	collections.Post("/:id/threads/:threadId", s.AddThreadToCollection)
	collections.Delete("/:id/threads/:threadId", s.RemoveThreadFromCollection)
	collections.Delete("/:id", s.DeleteCollection)

	protected.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   s.now(),
	})
}

// ReadinessCheck pings the storage backend and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storageStatus := "healthy"
	if err := s.backend.Ping(ctx); err != nil {
		storageStatus = "unhealthy"
		observability.Logger.WarnContext(ctx, "storage ping failed", slog.String("error", err.Error()))
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if storageStatus != "healthy" || redisStatus == "unhealthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"storage": storageStatus,
			"redis":   redisStatus,
		},
		"time": s.now(),
	})
}

// flagRequired rejects the request with 403 when flag is off for the caller.
func (s *Server) flagRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(flag, middleware.UserID(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError(fmt.Sprintf("Feature %q is disabled", flag)))
		}
		return c.Next()
	}
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
