// @title CPA Academy API
// @version 1.0
// @description Study materials, catalog and quizzes for CPA exam preparation.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "cpa-academy/cmd/api/docs"
	"cpa-academy/internal/adapter"
	"cpa-academy/internal/cache"
	"cpa-academy/internal/config"
	"cpa-academy/internal/database"
	"cpa-academy/internal/handler"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/metrics"
	"cpa-academy/internal/middleware"
	"cpa-academy/internal/repository"
	"cpa-academy/internal/service"
	"cpa-academy/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Process request
		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewSQLXDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis Client
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Storage backend is fixed for the life of the process
	blobStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage backend", zap.Error(err))
	}
	appLogger.Info("Storage backend initialized", zap.String("backend", blobStore.Name()))

	// Initialize repositories
	materialRepository := repository.NewSQLXMaterialRepository(db)
	catalogRepository := repository.NewSQLXCatalogRepository(db)
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	quizAttemptRepository := repository.NewSQLXQuizAttemptRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)

	// Initialize services
	authService, err := service.NewAuthService(userRepository, cfg.JWT)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	materialService := service.NewMaterialService(materialRepository, catalogRepository, blobStore, cfg.Upload)
	downloadService := service.NewDownloadService(materialRepository, blobStore)
	quizService := service.NewQuizService(quizRepository, quizAttemptRepository, cacheAdapter, cfg.CacheTTLs.QuestionSet)
	catalogService := service.NewCatalogService(catalogRepository, cacheAdapter, cfg.CacheTTLs.Catalog)

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Material: handler.NewMaterialHandler(materialService, downloadService),
		Quiz:     handler.NewQuizHandler(quizService),
		Health: handler.NewHealthHandler(map[string]handler.PingFunc{
			"database": db.PingContext,
			"redis":    cacheAdapter.Ping,
		}),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(requestLogger())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       300,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, handlers, authService)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server exited gracefully")
}
