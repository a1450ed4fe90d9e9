// Package main runs the webinar platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexwebinar/backend/config"
	"github.com/lexwebinar/backend/internal/auth"
	"github.com/lexwebinar/backend/internal/emaillogs"
	"github.com/lexwebinar/backend/internal/middleware"
	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/internal/partners"
	"github.com/lexwebinar/backend/internal/registrations"
	"github.com/lexwebinar/backend/internal/supports"
	"github.com/lexwebinar/backend/internal/testimonials"
	"github.com/lexwebinar/backend/internal/webinars"
	"github.com/lexwebinar/backend/pkg/database"
	"github.com/lexwebinar/backend/pkg/queue"
	"github.com/lexwebinar/backend/pkg/redis"
	"github.com/lexwebinar/backend/pkg/response"
	"github.com/lexwebinar/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		SupportsBucket:       cfg.AWS.SupportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Webinars
	webinarRepo := webinars.NewRepository(pool)
	webinarSvc := webinars.NewService(webinarRepo, authRepo)
	webinarHandler := webinars.NewHandler(webinarSvc, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationSvc := registrations.NewService(registrationRepo, authRepo)
	registrationHandler := registrations.NewHandler(registrationSvc, authRepo, jobQueue, logger)

	// Testimonials
	testimonialRepo := testimonials.NewRepository(pool)
	testimonialHandler := testimonials.NewHandler(testimonialRepo, logger)

	// Supports (S3-backed documents)
	supportRepo := supports.NewRepository(pool)
	supportHandler := supports.NewHandler(supportRepo, s3Client, logger)

	// Partner applications
	partnerRepo := partners.NewRepository(pool)
	partnerHandler := partners.NewHandler(partnerRepo, jobQueue, logger)

	// Email logs
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Partner applications (public entry point)
	router.POST("/partners/apply", partnerHandler.Apply)

	admin := middleware.RequireRole(models.RoleAdmin)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only; for actor assignment and account validation)
		api.GET("/users", admin, authHandler.List)
		api.PATCH("/users/:id/status", admin, authHandler.UpdateStatus)

		// Webinars
		api.GET("/webinars", webinarHandler.FindAll)
		api.POST("/webinars", admin, webinarHandler.Create)
		api.GET("/webinars/:id", webinarHandler.FindOne)
		api.PATCH("/webinars/:id", admin, webinarHandler.Update)
		api.DELETE("/webinars/:id", admin, webinarHandler.Delete)
		api.PATCH("/webinars/:id/handle-status", admin, webinarHandler.HandleStatus)
		api.PATCH("/webinars/:id/assign", admin, webinarHandler.AssignActors)

		// Registrations
		api.POST("/webinars/:id/register", registrationHandler.Register)
		api.POST("/webinars/:id/unregister", registrationHandler.Unregister)
		api.GET("/registrations", admin, registrationHandler.FindAll)
		api.GET("/webinars/:id/registrations", admin, registrationHandler.FindByWebinar)
		api.GET("/webinars/:id/stats", admin, registrationHandler.Stats)

		// Supports
		api.GET("/webinars/:id/supports", supportHandler.ListByWebinar)
		api.GET("/supports/:id/download", supportHandler.Download)
		api.POST("/supports", admin, supportHandler.Create)
		api.POST("/supports/upload-url", admin, supportHandler.UploadURL)
		api.DELETE("/supports/:id", admin, supportHandler.Delete)

		// Testimonials
		api.POST("/testimonials", testimonialHandler.Create)
		api.GET("/testimonials", testimonialHandler.FindAll)
		api.GET("/testimonials/:id", testimonialHandler.FindOne)
		api.PATCH("/testimonials/:id/moderate", admin, testimonialHandler.Moderate)
		api.DELETE("/testimonials/:id", admin, testimonialHandler.Delete)

		// Partner applications (admin review)
		api.GET("/partners", admin, partnerHandler.FindAll)
		api.GET("/partners/:id", admin, partnerHandler.FindOne)
		api.PATCH("/partners/:id/review", admin, partnerHandler.Review)
		api.DELETE("/partners/:id", admin, partnerHandler.Delete)

		// Email logs
		api.GET("/email-logs", admin, emailLogsHandler.FindAll)
		api.GET("/email-logs/:id", admin, emailLogsHandler.FindOne)
		api.POST("/email-logs/:id/resend", admin, emailLogsHandler.Resend)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
