// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"minato/internal/cache"
	"minato/internal/config"
	"minato/internal/database"
	"minato/internal/middleware"
	"minato/internal/models"
	"minato/internal/repository"
	"minato/internal/service"
	"minato/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
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
	storage        storage.Storage

	userRepo repository.UserRepository
	postRepo repository.PostRepository
	recorder *service.ImpressionRecorder

	feedService       service.FeedService
	postService       service.PostService
	engagementService service.EngagementService
	productService    service.ProductService
	userService       service.UserService
	statsService      service.StatsService
	trendService      service.TrendService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	var store storage.Storage
	if cfg.MinioEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		minioStore, err := storage.NewMinIOStorage(ctx, cfg)
		if err != nil {
			// Media uploads degrade to unavailable; everything else still works.
			log.Printf("minio unavailable, media uploads disabled: %v", err)
		} else {
			store = minioStore
		}
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	repostRepo := repository.NewRepostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	productRepo := repository.NewProductRepository(db)
	impressionRepo := repository.NewImpressionRepository(db)
	tagRepo := repository.NewTagRepository(db)

	prom := middleware.InitMetrics("minato-api")

	recorder := service.NewImpressionRecorder(impressionRepo)

	server := &Server{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		promMiddleware:    prom,
		storage:           store,
		userRepo:          userRepo,
		postRepo:          postRepo,
		recorder:          recorder,
		feedService:       service.NewFeedService(postRepo, repostRepo, productRepo, recorder),
		postService:       service.NewPostService(postRepo, productRepo, userRepo),
		engagementService: service.NewEngagementService(postRepo, likeRepo, repostRepo),
		productService:    service.NewProductService(productRepo, postRepo),
		userService:       service.NewUserService(userRepo),
		statsService:      service.NewStatsService(impressionRepo, userRepo, productRepo),
		trendService:      service.NewTrendService(tagRepo),
	}
	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry server span per request
	app.Use(middleware.TracingMiddleware())

	// Resolve the viewer from the access cookie before anything logs.
	app.Use(s.ViewerResolver())

	// Context middleware to propagate request ID and viewer ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)

	// Public post routes: the timeline, search, and detail views render for
	// anonymous viewers with engagement flags pinned false.
	posts := api.Group("/posts")
	posts.Get("/", s.GetTimeline)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchPosts)
	posts.Get("/:postId/quotes", s.GetQuotes)
	posts.Get("/:postId/replies", s.GetReplies)
	posts.Get("/:postId", s.GetPost)

	// Public product routes
	products := api.Group("/products")
	products.Get("/", s.GetProducts)
	products.Get("/:productId", s.GetProduct)

	// Public tag and trend routes
	api.Get("/tags", s.GetTags)
	api.Get("/trends", s.GetTrends)

	// Public user routes
	api.Get("/users/search", s.SearchUsers)
	api.Get("/users/:username/posts", s.GetUserPosts)
	api.Get("/users/:username/followers", s.GetFollowers)
	api.Get("/users/:username/following", s.GetFollowing)
	api.Get("/users/:username", s.GetUserProfile)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protectedPosts := protected.Group("/posts")
	protectedPosts.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	protectedPosts.Post("/:postId/replies", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_reply"), s.CreateReply)
	protectedPosts.Post("/:postId/like", s.LikePost)
	protectedPosts.Delete("/:postId/like", s.UnlikePost)
	protectedPosts.Post("/:postId/repost", s.RepostPost)
	protectedPosts.Delete("/:postId/repost", s.UnrepostPost)
	protectedPosts.Delete("/:postId", s.DeletePost)

	protectedProducts := protected.Group("/products")
	protectedProducts.Post("/:productId/price", s.ChangeProductPrice)
	protectedProducts.Put("/:productId/rating", s.RateProduct)

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/stats", s.GetMyStats)

	follows := protected.Group("/follows")
	follows.Post("/:username", s.FollowUser)
	follows.Delete("/:username", s.UnfollowUser)
	follows.Get("/:username", s.GetFollowStatus)

	protected.Post("/media", middleware.RateLimit(
		s.redis, 20, time.Minute, "upload_media"), s.UploadMedia)
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
	sqlDB, err := s.db.DB()
	if err != nil {
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// newApp builds the Fiber app with the application-wide settings. Errors that
// escape the handlers still answer in the standard failure envelope.
func (s *Server) newApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "Minato API",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
}

// Start builds the app, wires middleware and routes, and listens. It blocks
// until Shutdown closes the listener.
func (s *Server) Start() error {
	app := s.newApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
