package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/api"
	"subtrack/internal/auth"
	"subtrack/internal/config"
	"subtrack/internal/db"
	"subtrack/internal/identity"
	"subtrack/internal/logging"
	"subtrack/internal/recommend"
	"subtrack/internal/redis"
	"subtrack/internal/storage"
	"subtrack/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting_api", "service", "subtrack-api", "http_addr", cfg.HTTPAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	dbConn, err := db.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Connect to Redis
	redisClient, err := redis.New(cfg.RedisDSN)
	if err != nil {
		logger.Error("redis_connect_failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	users := store.NewUserStore(dbConn)
	subs := store.NewSubscriptionStore(dbConn)
	recs := store.NewRecommendationStore(dbConn)

	// Avatar mirroring is optional; without a bucket the syncer keeps the
	// provider-hosted URL.
	var mirrorQueue *storage.MirrorQueue
	if cfg.AvatarBucket != "" {
		mirror, err := storage.NewS3Mirror(storage.S3Config{
			Endpoint:  cfg.AvatarEndpoint,
			Bucket:    cfg.AvatarBucket,
			PublicURL: cfg.AvatarPublicURL,
			Region:    cfg.AvatarRegion,
		})
		if err != nil {
			logger.Error("avatar_mirror_init_failed", "error", err)
			os.Exit(1)
		}
		mirrorQueue = storage.NewMirrorQueue(logger, mirror, users)
		mirrorQueue.Start()
		logger.Info("avatar_mirror_started", "bucket", cfg.AvatarBucket)
	} else {
		logger.Info("avatar_mirror_disabled")
	}

	// Signature stays nil without a secret; the webhook endpoint then
	// answers 500 so the provider keeps retrying until we are configured.
	var sig identity.SignatureVerifier
	if cfg.ClerkWebhookSecret != "" {
		sig, err = identity.NewSvixVerifier(cfg.ClerkWebhookSecret)
		if err != nil {
			logger.Error("webhook_verifier_init_failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("webhook_secret_unset", "hint", "set CLERK_WEBHOOK_SECRET to enable identity sync")
	}

	var avatarMirror identity.AvatarMirror
	if mirrorQueue != nil {
		avatarMirror = mirrorQueue
	}
	syncer := identity.NewSyncer(logger, users, avatarMirror)

	srv := api.NewServer(logger, cfg, api.Options{
		Users:           users,
		Subscriptions:   subs,
		Recommendations: recommend.NewStubEngine(recs),
		Auth:            auth.NewClerkVerifier(cfg.ClerkSecretKey),
		Signature:       sig,
		Syncer:          syncer,
		DB:              dbConn,
		Cache:           redisClient,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_listen_failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("api_started", "addr", cfg.HTTPAddr)

	// graceful shutdown
	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	} else {
		logger.Info("http_server_stopped")
	}

	if mirrorQueue != nil {
		mirrorQueue.Stop()
		logger.Info("avatar_mirror_stopped")
	}

	if err := redisClient.Close(); err != nil {
		logger.Warn("redis_close_error", "error", err)
	} else {
		logger.Info("redis_closed")
	}

	dbConn.Close()
	logger.Info("db_closed")

	logger.Info("api_stopped")
}
