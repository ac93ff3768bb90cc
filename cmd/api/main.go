package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reportflow/internal/auth"
	"reportflow/internal/config"
	"reportflow/internal/httpserver"
	"reportflow/internal/logger"
	"reportflow/internal/metrics"
	"reportflow/internal/services/drafting"
	"reportflow/internal/services/harvest"
	"reportflow/internal/services/reportgen"
	"reportflow/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Sugar().Fatalw("config", "error", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	st, closeStore := openStore(cfg, lg)
	defer closeStore()

	if cfg.SeedUsers {
		if err := store.SeedUsers(context.Background(), st, lg); err != nil {
			lg.Fatalw("seed users failed", "error", err)
		}
	}
	metrics.Register()

	hv := harvest.New(harvest.Config{
		BaseURL:     cfg.HarvestBaseURL,
		AccessToken: cfg.HarvestToken,
		AccountID:   cfg.HarvestAccountID,
		Timeout:     cfg.ExternalTimeout,
	}, lg)
	if !cfg.HarvestConfigured() {
		lg.Warnw("harvest credentials missing, time entries will use mock data")
	}
	drafter := drafting.New(drafting.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, lg)
	if !drafter.Enabled() {
		lg.Warnw("OPENAI_API_KEY not set, report drafts will use the local template")
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Store:              st,
		Sessions:           auth.NewSessionManager(st, auth.NewSigner(cfg.JWTSecret), cfg.SessionTTL),
		Harvest:            hv,
		Populator:          reportgen.New(st, hv, drafter, lg),
		Logger:             lg,
		FrontendURL:        cfg.FrontendURL,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginRateBurst:     cfg.LoginRateBurst,
		TrustProxy:         cfg.TrustProxy,
		RequestLogging:     true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// drafting can take a while when the AI backend is slow
		WriteTimeout: 2*cfg.ExternalTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Errorw("graceful shutdown failed", "error", err)
	}
	lg.Infow("server stopped")
}

// openStore picks postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStore(cfg *config.Config, lg *zap.SugaredLogger) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		lg.Warnw("DATABASE_URL is empty, using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}
	}
	gs, err := store.Open(cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	return gs, func() {
		if sqlDB, err := gs.DB().DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
