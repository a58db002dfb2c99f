package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/akshay-km/studyvault-api/api/swagger"
	"github.com/akshay-km/studyvault-api/internal/handler"
	"github.com/akshay-km/studyvault-api/internal/middleware"
	"github.com/akshay-km/studyvault-api/internal/models"
	"github.com/akshay-km/studyvault-api/internal/repository"
	"github.com/akshay-km/studyvault-api/internal/service"
	"github.com/akshay-km/studyvault-api/pkg/cache"
	"github.com/akshay-km/studyvault-api/pkg/config"
	"github.com/akshay-km/studyvault-api/pkg/database"
	"github.com/akshay-km/studyvault-api/pkg/jobs"
	"github.com/akshay-km/studyvault-api/pkg/logger"
	corsmiddleware "github.com/akshay-km/studyvault-api/pkg/middleware/cors"
	reqidmiddleware "github.com/akshay-km/studyvault-api/pkg/middleware/requestid"
	"github.com/akshay-km/studyvault-api/pkg/storage"
)

// @title StudyVault API
// @version 1.0.0
// @description Study material sharing platform with admin review workflow
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, materials cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	requestRepo := repository.NewMaterialRequestRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.MaterialsTTL, logr, cfg.Cache.Enabled)
	}

	// Services.
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	requestService := service.NewMaterialRequestService(requestRepo, subjectRepo, userRepo, cacheService, validate, logr, service.MaterialRequestConfig{
		ExtraLinkPrefixes: cfg.Uploads.AllowedLinkPrefixes,
	})
	materialService := service.NewMaterialService(materialRepo, userRepo, cacheService, metricsService, cfg.Cache.MaterialsTTL, validate, logr)
	wishlistService := service.NewWishlistService(wishlistRepo, materialService, subjectRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, materialRepo, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	requestHandler := handler.NewMaterialRequestHandler(requestService)
	materialHandler := handler.NewMaterialHandler(materialService)
	wishlistHandler := handler.NewWishlistHandler(wishlistService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	subjects := api.Group("/subjects")
	{
		subjects.GET("/:scheme/:semester", subjectHandler.ListBySemester)
		subjects.GET("/:scheme/:semester/:code/availability", subjectHandler.Availability)
	}

	materials := api.Group("/materials")
	{
		materials.GET("", materialHandler.List)
		materials.GET("/:id", materialHandler.Get)
		materials.POST("/:id/ratings", middleware.JWT(authService), materialHandler.Rate)
		materials.POST("/requests", middleware.JWT(authService), requestHandler.Submit)
		materials.GET("/requests", middleware.JWT(authService), requestHandler.MyRequests)
	}

	wishlist := api.Group("/wishlist", middleware.JWT(authService))
	{
		wishlist.POST("/toggle", wishlistHandler.Toggle)
		wishlist.GET("", wishlistHandler.List)
	}

	admin := api.Group("/admin", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/requests", requestHandler.ListForReview)
		admin.POST("/requests/:id/approve", requestHandler.Approve)
		admin.POST("/requests/:id/reject", requestHandler.Reject)
		admin.PATCH("/materials/:id", materialHandler.Update)
		admin.DELETE("/materials/:id", materialHandler.Delete)
		admin.POST("/subjects", subjectHandler.Create)
		admin.PATCH("/subjects/:scheme/:semester/:code", subjectHandler.Update)
		admin.DELETE("/subjects/:scheme/:semester/:code", subjectHandler.Delete)
	}

	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService := service.NewExportService(materialRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewExportWorker(exportJobRepo, exportService, metricsService, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("catalog-exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		exportJobService := service.NewExportJobService(exportJobRepo, queue, exportService, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobService.RecoverPendingJobs(ctx)
		exportJobService.StartCleanup(ctx)

		exportHandler := handler.NewExportHandler(exportJobService)
		admin.POST("/exports", exportHandler.Generate)
		admin.GET("/exports/:id", exportHandler.Status)
		admin.GET("/exports/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Warnw("shutdown error", "error", err)
	}
}
