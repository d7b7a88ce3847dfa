package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/farewellhq/event-pass-api/api/swagger"
	"github.com/farewellhq/event-pass-api/internal/handler"
	"github.com/farewellhq/event-pass-api/internal/middleware"
	"github.com/farewellhq/event-pass-api/internal/repository"
	"github.com/farewellhq/event-pass-api/internal/service"
	"github.com/farewellhq/event-pass-api/pkg/cache"
	"github.com/farewellhq/event-pass-api/pkg/config"
	"github.com/farewellhq/event-pass-api/pkg/database"
	"github.com/farewellhq/event-pass-api/pkg/logger"
	"github.com/farewellhq/event-pass-api/pkg/mailer"
	corsmiddleware "github.com/farewellhq/event-pass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/farewellhq/event-pass-api/pkg/middleware/requestid"
	"github.com/farewellhq/event-pass-api/pkg/qr"
)

// @title Event Pass API
// @version 1.0.0
// @description Roster management, QR pass issuance and single-use pass verification for the farewell event.
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The limiter fails open without Redis; keep serving.
		logr.Sugar().Warnw("redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	studentRepo := repository.NewStudentRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)

	metricsSvc := service.NewMetricsService()
	rosterSvc := service.NewRosterService(studentRepo, nil, logr)
	exportSvc := service.NewExportService(studentRepo, logr)
	issuanceSvc := service.NewIssuanceService(studentRepo, qr.NewGenerator(cfg.QR.Size), mailer.New(cfg.SMTP), metricsSvc, logr)
	verificationSvc := service.NewVerificationService(verificationRepo, metricsSvc, logr, cfg.Database.TxTimeout)

	studentHandler := handler.NewStudentHandler(rosterSvc, exportSvc)
	passHandler := handler.NewPassHandler(issuanceSvc, verificationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		students := api.Group("/students")
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.POST("/classify", studentHandler.Classify)
		students.POST("/generate-passes", passHandler.GeneratePasses)
		students.GET("/export", studentHandler.Export)

		scanner := api.Group("/scanner")
		scanner.POST("/verify", middleware.RateLimit(redisClient, cfg.RateLimit, logr), passHandler.Verify)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
