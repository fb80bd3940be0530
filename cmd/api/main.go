package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Msg("no .env file found")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis only backs the rate limiter, so the API runs without it
	var redisClient *redis.Client
	if client, err := database.NewRedisClient(cfg); err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	store, mediaDir, err := mediaStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to set up media storage")
	}
	images := service.NewImageService(store)

	ledger := service.NewPreferenceLedger(db)
	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
	svc := api.Services{
		Auth:     auth,
		Users:    service.NewUserService(db, ledger, images),
		Recipes:  service.NewRecipeService(db, ledger, service.NewRecipeComposer(db), images),
		Catalog:  service.NewCatalogService(db),
		Shopping: service.NewShoppingListAggregator(db),
	}
	opts := api.Options{
		PageSize:      cfg.PageSize,
		CreateLimiter: middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit, cfg.RecipeCreateEvery),
		DB:            db,
	}
	engine := router.SetupRouter(svc, opts, router.Settings{
		CORSOrigins: cfg.CORSOrigins,
		MediaDir:    mediaDir,
		MediaURL:    cfg.MediaBaseURL,
	})

	// Create and start server
	srv := server.New(cfg, engine)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("received signal")
	}

	logging.Info().Msg("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logging.Fatal().Err(err).Msg("server shutdown error")
	}
	logging.Info().Msg("server stopped")
}

// mediaStore returns the configured image store and, for the local backend,
// the directory to serve it from.
func mediaStore(cfg *config.Config) (service.MediaStore, string, error) {
	if cfg.MediaBackend != "s3" {
		return &service.LocalStore{Dir: cfg.MediaDir, BaseURL: cfg.MediaBaseURL}, cfg.MediaDir, nil
	}

	ctx := context.Background()
	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	if err := s3Config.SetupBucketPolicy(ctx); err != nil {
		logging.Warn().Err(err).Str("bucket", s3Config.BucketName).Msg("failed to apply bucket policy")
	}
	return service.NewS3Store(s3Config), "", nil
}
