package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callagent-platform/internal/agents"
	"callagent-platform/internal/audit"
	"callagent-platform/internal/auth"
	"callagent-platform/internal/calls"
	"callagent-platform/internal/config"
	"callagent-platform/internal/leads"
	"callagent-platform/internal/reporting"
	"callagent-platform/pkg/logger"
	"callagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Absent .env is fine; real env always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	var limiter calls.ConcurrencyLimiter
	if cfg.Calls.MaxConcurrentPerAgent > 0 {
		limiter = calls.NewRedisLimiter(rdb, cfg.Calls.MaxConcurrentPerAgent, cfg.Calls.CapTTL)
	}
	callStore := calls.NewPostgresStore(db)
	tracker := calls.NewTracker(callStore, limiter, auditSvc)

	agentSvc := agents.NewService(agents.NewPostgresRepo(db))

	leadRepo := leads.NewPostgresRepo(db)
	var extractor leads.Extractor
	if cfg.OpenAI.APIKey != "" {
		extractor = leads.NewOpenAIExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}
	leadSvc := leads.NewService(leadRepo, extractor, callStore, auditSvc)

	reportSvc := reporting.NewService(reporting.NewStoreRepo(callStore, leadRepo))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	deps := appDeps{
		cfg:         cfg,
		authManager: authManager,
		tracker:     tracker,
		callStore:   callStore,
		agents:      agentSvc,
		leads:       leadSvc,
		reporting:   reportSvc,
		audit:       auditSvc,
		db:          db,
	}
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

type appDeps struct {
	cfg         config.Config
	authManager *auth.Manager
	tracker     *calls.Tracker
	callStore   calls.Store
	agents      *agents.Service
	leads       *leads.Service
	reporting   *reporting.Service
	audit       *audit.Service
	db          *sql.DB
}
