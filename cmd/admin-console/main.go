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
	"go.uber.org/zap"

	_ "github.com/Alexseyf/elo-escola/api/swagger"
	"github.com/Alexseyf/elo-escola/internal/client"
	"github.com/Alexseyf/elo-escola/internal/handler"
	"github.com/Alexseyf/elo-escola/internal/repository"
	"github.com/Alexseyf/elo-escola/internal/service"
	"github.com/Alexseyf/elo-escola/internal/session"
	"github.com/Alexseyf/elo-escola/internal/store"
	"github.com/Alexseyf/elo-escola/pkg/cache"
	"github.com/Alexseyf/elo-escola/pkg/config"
	"github.com/Alexseyf/elo-escola/pkg/export"
	"github.com/Alexseyf/elo-escola/pkg/logger"
)

// @title Elo Escola Admin Console API
// @version 1.0.0
// @description Administrative console over the school platform student API
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	clientCfg := client.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logr,
	}

	var verifier session.Verifier
	if cfg.Session.SigningKey != "" {
		verifier = session.NewKeyVerifier(cfg.Session.SigningKey)
	} else {
		logr.Info("JWT_SECRET not set, access tokens are confirmed against the platform")
		verifier = session.NewUpstreamVerifier(client.New(clientCfg, nil, client.WithObserver(metrics)))
	}
	sess := session.New(verifier)
	if cfg.Session.Token != "" {
		if _, err := sess.SetToken(ctx, cfg.Session.Token); err != nil {
			logr.Warn("ignoring SESSION_TOKEN", zap.Error(err))
		}
	}

	api := client.New(clientCfg, sess, client.WithObserver(metrics))

	students := store.New(store.Params{API: api, Logger: logr, Metrics: metrics})

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, chart cache disabled", zap.Error(err))
	}
	var (
		cacheRepo service.CacheRepository
		pinger    handler.Pinger
	)
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, repository.DefaultKeyPrefix, logr)
		cacheRepo, pinger = repo, repo
		defer repo.Close() //nolint:errcheck
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Charts.CacheTTL, logr)

	charts := service.NewChartService(students, cacheSvc, cfg.Charts.CacheTTL, logr)
	exports := service.NewExportService(students, logr, export.NewCSVExporter(export.SpreadsheetCSV), export.NewPDFExporter())

	prefetch := service.NewPrefetchService(cfg.Prefetch, charts, logr)
	prefetch.Start(ctx)
	defer prefetch.Stop()

	onSwitch := func(ctx context.Context) {
		students.ClearCache()
		if err := charts.Invalidate(ctx); err != nil {
			logr.Warn("chart cache not invalidated on session switch", zap.Error(err))
		}
		if id, ok := prefetch.Trigger("session_switch"); ok {
			logr.Debug("prefetch queued", zap.String("job_id", id))
		}
	}
	onLogout := func(ctx context.Context) {
		students.ClearCache()
		if err := charts.Invalidate(ctx); err != nil {
			logr.Warn("chart cache not invalidated on logout", zap.Error(err))
		}
	}
	if sess.Active() {
		prefetch.Trigger("startup")
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		EnableMetrics:  cfg.Metrics.Enabled,
	}, handler.RouterDeps{
		Logger:   logr,
		Session:  sess,
		OnSwitch: onSwitch,
		Observer: metrics,
		Students: handler.NewStudentHandler(students),
		State:    handler.NewStateHandler(students, charts, logr),
		Charts:   handler.NewChartHandler(charts),
		Reports:  handler.NewReportHandler(exports),
		Sessions: handler.NewSessionHandler(sess, onLogout, logr),
		Metrics:  handler.NewMetricsHandler(metrics, pinger),
	})

	// No write timeout: /state/stream holds the connection open.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "upstream", api.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
