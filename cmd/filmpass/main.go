package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FilmPass/internal/pkg/cache"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
	"github.com/ManuelReschke/FilmPass/internal/pkg/database"
	"github.com/ManuelReschke/FilmPass/internal/pkg/downloads"
	"github.com/ManuelReschke/FilmPass/internal/pkg/env"
	"github.com/ManuelReschke/FilmPass/internal/pkg/identity"
	"github.com/ManuelReschke/FilmPass/internal/pkg/playback"
	"github.com/ManuelReschke/FilmPass/internal/pkg/s3store"
	"github.com/ManuelReschke/FilmPass/internal/pkg/server"
	"github.com/ManuelReschke/FilmPass/internal/pkg/square"
	"github.com/ManuelReschke/FilmPass/internal/pkg/telemetry"
)

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	if err := telemetry.InitSentry(cfg.Ops.SentryDSN, cfg.App.Env, cfg.App.Release); err != nil {
		log.Warnf("[Main] sentry disabled: %v", err)
	}
	defer telemetry.Flush()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	if !cfg.IsProduction() {
		// production schema is owned by cmd/migrate
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("[Main] auto migrate failed: %v", err)
		}
	}

	redisClient := cache.New(cfg.Cache)
	squareClient := square.NewClient(cfg.Square)

	deps := server.Dependencies{
		DB:             db,
		Cache:          redisClient,
		LimiterStorage: cache.NewLimiterStorage(cfg.Cache, cache.Reachable(redisClient)),
		Verifier:       identity.NewJWTVerifier(cfg.Auth),
		PaymentLinks:   squareClient,
		Orders:         squareClient,
		Minter:         newMinter(cfg.Playback),
		Presigner:      newPresigner(cfg.S3),
		OpenAPIFile:    findOpenAPIFile(),
		RequestLogging: true,
	}

	app := server.NewApplication(cfg, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("[Main] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[Main] shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	log.Infof("[Main] FilmPass (%s) listening on %s", cfg.App.Env, addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("[Main] %v", err)
	}
}

// newMinter returns a nil interface when no signing key is configured so the
// playback service can report it instead of dereferencing a nil pointer.
func newMinter(cfg config.PlaybackConfig) playback.TokenMinter {
	if cfg.SigningKeyID == "" || len(cfg.PrivateKeyPEM) == 0 {
		log.Warn("[Main] MUX_SIGNING_KEY_ID/MUX_SIGNING_PRIVATE_KEY not set, playback tokens disabled")
		return nil
	}
	minter, err := playback.NewMinter(cfg.SigningKeyID, cfg.PrivateKeyPEM, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("[Main] playback signing key: %v", err)
	}
	log.Infof("[Main] playback tokens signed with key %s, valid for %s", cfg.SigningKeyID, minter.TTL())
	return minter
}

func newPresigner(cfg config.S3Config) downloads.Presigner {
	if cfg.BucketName == "" {
		log.Warn("[Main] S3_BUCKET_NAME not set, downloads disabled")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := s3store.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("[Main] s3 client: %v", err)
	}
	log.Infof("[Main] download links presigned for bucket %s", client.Bucket())
	return client
}

func findOpenAPIFile() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/filmpass to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		file := path + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(file); err == nil {
			return file
		}
	}
	return ""
}
