package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"recipe-vault/internal/api/handlers"
	"recipe-vault/internal/api/routes"
	"recipe-vault/internal/jobs"
	"recipe-vault/internal/middleware"
	"recipe-vault/internal/utils"
	"recipe-vault/internal/utils/storage"
	"recipe-vault/pkg/collection"
	"recipe-vault/pkg/jwt"
	"recipe-vault/pkg/media"
	"recipe-vault/pkg/recipe"
	"recipe-vault/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewApp wires repositories, services and handlers into a fiber app and
// returns the scheduler for background jobs, not yet started.
func NewApp(db *gorm.DB, cfg *utils.Config, log *zap.Logger) (*fiber.App, *cron.Cron, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: !cfg.IsProduction(),
		BodyLimit:         cfg.MaxImageBytes + 1<<20,
	})
	middlewares := middleware.NewMiddleware(cfg.CORSAllowOrigins)
	validator := utils.Validate

	// setting up access log, recover and limiter
	if err := os.MkdirAll(filepath.Dir(cfg.AccessLogPath), os.ModePerm); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(
		cfg.AccessLogPath,
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open access log: %w", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.DBTimeZone,
		Output:     file,
	}))
	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}))

	// utils
	s3, err := storage.NewAwsS3(context.Background(), storage.S3Config{
		Bucket:    cfg.AWSS3Bucket,
		Region:    cfg.AWSS3Region,
		Endpoint:  cfg.AWSS3Endpoint,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init s3: %w", err)
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)
	recipeListRepository := collection.NewRecipeListRepository(db)

	// Service
	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	userService := user.NewUserService(userRepository, jwtService, log)
	recipeService := recipe.NewRecipeService(recipeRepository, validator, log)
	collectionService := collection.NewCollectionService(recipeListRepository, recipeRepository, log)
	mediaService := media.NewMediaService(s3, cfg.MaxImageBytes, log)

	if err := userService.EnsureSuperusers(context.Background(), cfg.Superusers, cfg.SuperuserPassword); err != nil {
		return nil, nil, fmt.Errorf("create superusers: %w", err)
	}

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)
	collectionHandler := handlers.NewCollectionHandler(collectionService, validator)
	mediaHandler := handlers.NewMediaHandler(mediaService)

	// routes
	routesConfig := routes.Config{
		App:               app,
		UserHandler:       userHandler,
		RecipeHandler:     recipeHandler,
		CollectionHandler: collectionHandler,
		MediaHandler:      mediaHandler,
		Middleware:        middlewares,
		JWTService:        jwtService,
	}
	routesConfig.Setup()

	// jobs
	scheduler, err := jobs.NewScheduler(cfg.SaveCountReconcileSchedule, recipeService, log)
	if err != nil {
		return nil, nil, fmt.Errorf("schedule jobs: %w", err)
	}

	return app, scheduler, nil
}
