package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-gradebook/api/swagger"
	"github.com/noah-isme/sma-gradebook/internal/app"
	"github.com/noah-isme/sma-gradebook/internal/handler"
	"github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/jobs"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-gradebook/pkg/middleware/requestid"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

// @title SMA Gradebook API
// @version 1.0.0
// @description Teacher-operated school records: students, classes, activities, grades and report cards
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	validate := validator.New()
	store, closeStore, err := app.OpenStore(ctx, cfg, validate, logr, repository.WithObserver(metrics))
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	teachers := service.NewTeacherService(store, validate, logr)
	auth := service.NewAuthService(store, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	reports := service.NewReportService(store, cfg.Grading.PassThreshold, logr)
	exports := service.NewExportService(reports, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		Retention: cfg.Reports.Retention,
	}, logr)
	if metrics != nil {
		exports.SetObserver(metrics)
	}

	cleanup := jobs.NewScheduler("export-cleanup", func(context.Context) error {
		_, err := exports.Cleanup(0)
		return err
	}, jobs.Config{Interval: time.Hour, MaxRetries: 2, RetryDelay: 30 * time.Second, Logger: logr})
	cleanup.Start(ctx)
	defer cleanup.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": cfg.Storage.Driver})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(auth, teachers),
		Teachers:    handler.NewTeacherHandler(teachers),
		Students:    handler.NewStudentHandler(service.NewStudentService(store, validate, logr)),
		Classes:     handler.NewClassHandler(service.NewClassService(store, validate, logr)),
		Enrollments: handler.NewEnrollmentHandler(service.NewEnrollmentService(store, logr), service.NewRosterImportService(store, validate, logr)),
		Activities:  handler.NewActivityHandler(service.NewActivityService(store, validate, logr)),
		Grades:      handler.NewGradeHandler(service.NewGradeService(store, logr)),
		Reports:     handler.NewReportHandler(reports, exports),
	}, middleware.JWT(auth), logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
