package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/reelroom/internal/api"
	"github.com/lalith-99/reelroom/internal/auth"
	"github.com/lalith-99/reelroom/internal/blob"
	"github.com/lalith-99/reelroom/internal/config"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/lalith-99/reelroom/internal/observ"
	"github.com/lalith-99/reelroom/internal/realtime"
	"github.com/lalith-99/reelroom/internal/service"
	"github.com/lalith-99/reelroom/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer backend.Close(context.Background())

	blobs, err := blob.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create %s blob store: %w", cfg.BlobBackend, err)
	}

	healthChecks := []api.HealthCheck{{Name: cfg.StoreBackend, Check: backend.Health}}

	// Comments fan out through Redis when configured so every instance's
	// live viewers see them; otherwise the hub is process-local.
	hub := realtime.NewHub(logger)
	var publisher service.CommentPublisher = hub
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}

		bridge := realtime.NewRedisBridge(rdb, hub, logger)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis comment bridge stopped", zap.Error(err))
			}
		}()
		publisher = bridge
		healthChecks = append(healthChecks, api.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("live comments fan out through redis", zap.String("instance_id", bridge.InstanceID()))
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	creds := service.NewCredentials(backend.Store.Users, auth.NewHasher(cfg.BcryptCost), tokens, logger)
	workspaces := service.NewWorkspaces(backend.Store.Workspaces, backend.Store.Users, backend.Store.Videos, logger)
	videos := service.NewVideos(backend.Store.Videos, backend.Store.Workspaces, blobs, publisher, logger)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	secureOpts := middleware.SecureOptions(cfg.Env == "development")
	routerCfg := api.RouterConfig{
		Auth:           api.NewAuthHandler(creds, logger),
		Workspaces:     api.NewWorkspaceHandler(workspaces, logger),
		Videos:         api.NewVideoHandler(videos, cfg.MaxUploadBytes, logger),
		Live:           api.NewLiveHandler(videos, hub, originChecker(cfg.CORSAllowedOrigins), logger),
		Health:         api.NewHealthHandler(healthChecks...),
		Verifier:       creds,
		Logger:         logger,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Secure:         &secureOpts,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	}
	if fs, ok := blobs.(*blob.FSStore); ok {
		routerCfg.FilesRoot = fs.Root()
	}

	router, err := api.NewRouter(routerCfg)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ReelRoom",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend),
			zap.String("blob", blobs.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// originChecker mirrors the CORS allow-list for websocket handshakes.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
