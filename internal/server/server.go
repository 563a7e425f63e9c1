// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "dailybright/docs" // swagger docs
	"dailybright/internal/bootstrap"
	"dailybright/internal/cache"
	"dailybright/internal/config"
	"dailybright/internal/featureflags"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/notifications"
	"dailybright/internal/observability"
	"dailybright/internal/prompt"
	"dailybright/internal/repository"
	"dailybright/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *middleware.Authenticator
	limiter        *middleware.RateLimiter
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	cache          *cache.Store
	catalog        *prompt.Catalog
	now            func() time.Time

	userService        *service.UserService
	friendService      *service.FriendService
	entryService       *service.EntryService
	dailyPromptService *service.DailyPromptService
	dailyStateService  *service.DailyStateService
	photoService       *service.PhotoService
}

// NewServer connects to the database and Redis and builds a Server over them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedCatalog: true})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, nil, rt.Catalog)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil provider or catalog is built from cfg. redisClient may be nil, which
// disables caching, revocation and rate limiting.
func NewServerWithDeps(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	provider prompt.Provider,
	catalog *prompt.Catalog,
) (*Server, error) {
	if catalog == nil {
		c, err := prompt.LoadCatalog(cfg)
		if err != nil {
			return nil, fmt.Errorf("load prompt catalog: %w", err)
		}
		catalog = c
	}
	if provider == nil {
		p, err := prompt.NewProvider(context.Background(), cfg, catalog)
		if err != nil {
			return nil, fmt.Errorf("build prompt provider: %w", err)
		}
		provider = p
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	dailyPromptRepo := repository.NewDailyPromptRepository(db)
	dailyStateRepo := repository.NewDailyStateRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, redisClient),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(redisClient),
		cache:          cache.NewStore(redisClient),
		catalog:        catalog,
		now:            time.Now,
	}

	server.photoService = service.NewPhotoService(photoRepo, cfg)
	server.userService = service.NewUserService(userRepo, server.photoService)
	server.friendService = service.NewFriendService(friendRepo, userRepo, server.notifier)
	server.dailyPromptService = service.NewDailyPromptService(promptRepo, dailyPromptRepo, dailyStateRepo, provider, server.cache)
	server.dailyStateService = service.NewDailyStateService(dailyStateRepo, promptRepo, server.dailyPromptService, catalog, cfg.Location(), nil)
	server.entryService = service.NewEntryService(entryRepo, friendRepo, server.dailyStateService, server.featureFlags)

	return server, nil
}

// DailyPrompts exposes the daily prompt service to the scheduler.
func (s *Server) DailyPrompts() *service.DailyPromptService {
	return s.dailyPromptService
}

// DailyStates exposes the daily state service to the scheduler.
func (s *Server) DailyStates() *service.DailyStateService {
	return s.dailyStateService
}

// Notifier exposes the event publisher to the scheduler.
func (s *Server) Notifier() *notifications.Notifier {
	return s.notifier
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span per request; exposes the trace id to ContextMiddleware
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Daily Bright Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded photos
	if s.photoService != nil {
		app.Static(service.UploadsRoute, s.photoService.UploadDir(), fiber.Static{
			MaxAge: 86400,
		})
	}

	// Scheduled trigger
	api.Post("/cron/daily-prompt", middleware.CronSecretRequired(s.config.CronSecret), s.CronDailyPrompt)

	// Admin override authenticates with the shared secret in the body
	api.Post("/admin/override-prompt", s.OverridePrompt)
	api.Get("/admin/feature-flags", middleware.CronSecretRequired(s.config.CronSecret), s.GetFeatureFlags)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Limit(3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", s.limiter.Limit(10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.auth.Required(), s.Logout)

	// Protected routes
	protected := api.Group("", s.auth.Required())

	// Daily prompt
	protected.Get("/daily-prompt", s.GetDailyPrompt)
	protected.Post("/daily-prompt", s.limiter.Limit(20, time.Minute, "entry_submit"), s.SubmitEntry)
	protected.Post("/prompts/generate", s.limiter.Limit(5, 10*time.Minute, "generate_prompt"), s.GeneratePrompt)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/password", s.limiter.Limit(5, 10*time.Minute, "password_change"), s.ChangeMyPassword)
	users.Get("/search", s.SearchUsers)

	// Friend routes
	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	// Specific /requests routes before /requests/:userId
	friends.Get("/requests", s.GetPendingRequests)
	friends.Get("/requests/sent", s.GetSentRequests)
	friends.Post("/requests", s.limiter.Limit(5, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Put("/requests/:userId", s.RespondToFriendRequest)

	// Entry routes
	entries := protected.Group("/entries")
	entries.Get("/mine", s.GetMyEntries)
	entries.Get("/feed", s.GetFriendsFeed)

	// Photo uploads
	protected.Post("/photos", s.limiter.Limit(10, 10*time.Minute, "photo_upload"), s.UploadPhoto)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis only backs caching, revocation and limits; the API works without it
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus == "unhealthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Daily Bright",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Daily Bright API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Shutdown the HTTP server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
