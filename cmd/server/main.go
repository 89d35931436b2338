package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/config"
	"github.com/ahsanfayaz52/notesservice/internal/db"
	"github.com/ahsanfayaz52/notesservice/internal/handlers"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/mailer"
	"github.com/ahsanfayaz52/notesservice/internal/media"
	"github.com/ahsanfayaz52/notesservice/internal/notes"
	"github.com/ahsanfayaz52/notesservice/internal/queue"
	"github.com/ahsanfayaz52/notesservice/internal/scheduler"
	"github.com/ahsanfayaz52/notesservice/internal/shrink"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
	"github.com/ahsanfayaz52/notesservice/internal/users"
)

func main() {
	cfg := config.LoadConfig()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if cfg.JWTSecret == "" {
		logg.Fatal("JWT_SECRET must be set")
	}
	if cfg.TaskSecret == "" {
		logg.Fatal("TASK_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(cfg.DBDriver, cfg.DBPath, cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	if err != nil {
		logg.Fatal("Failed to open database", "driver", cfg.DBDriver, "error", err)
	}
	defer dbConn.Close()

	store, blobDir, err := openStorage(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("Failed to initialize object storage", "mode", cfg.StorageMode, "error", err)
	}

	var sender mailer.Sender = mailer.NewLogSender(logg)
	if cfg.SendGridAPIKey != "" {
		sender, err = mailer.NewSendGrid(logg, mailer.SendGridConfig{APIKey: cfg.SendGridAPIKey, BaseURL: cfg.SendGridBaseURL})
		if err != nil {
			logg.Fatal("Failed to initialize SendGrid", "error", err)
		}
	}

	taskQueue, err := queue.NewRedis(logg, cfg.RedisAddr, cfg.QueueKey)
	if err != nil {
		logg.Fatal("Failed to connect task queue", "addr", cfg.RedisAddr, "error", err)
	}
	defer taskQueue.Close()

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	userStore := users.NewStore(dbConn)
	resolver := media.NewResolver(logg, store, cfg.BaseURL)
	noteSvc := notes.NewService(dbConn, resolver, logg)
	shrinker := shrink.New(logg, noteSvc, store, sender, cfg.MailFrom)

	r := handlers.NewRouter(handlers.Deps{
		Log:         logg,
		JWT:         jwtService,
		Users:       userStore,
		Notes:       noteSvc,
		Store:       store,
		Resolver:    resolver,
		Queue:       taskQueue,
		Shrinker:    shrinker,
		MailAddress: cfg.InboundMailAddress,
		TaskSecret:  cfg.TaskSecret,
		BlobDir:     blobDir,
	})

	worker := queue.NewWorker(logg, taskQueue, queue.NewDeliverer(cfg.BaseURL, cfg.TaskSecret), cfg.QueueMaxAttempts)
	go worker.Run(ctx)

	cron := scheduler.New(logg, cfg.BaseURL, cfg.TaskSecret)
	if err := cron.Every(cfg.ShrinkSchedule, "/shrink_all"); err != nil {
		logg.Fatal("Failed to schedule shrink", "error", err)
	}
	cron.Start()
	defer cron.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logg.Info("Starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal("Server failed", "error", err)
	}
}

// openStorage returns the configured blob store and, for the local mode, the
// directory to expose under /blobs/.
func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, string, error) {
	switch cfg.StorageMode {
	case storage.ModeLocal:
		s, err := storage.NewLocal(cfg.LocalStorageDir, cfg.BucketName, cfg.BaseURL+"/blobs")
		return s, cfg.LocalStorageDir, err
	case storage.ModeMemory:
		return storage.NewMemory(cfg.BucketName), "", nil
	default:
		s, err := storage.NewGCS(ctx, logg, storage.GCSConfig{
			Mode:         cfg.StorageMode,
			Bucket:       cfg.BucketName,
			EmulatorHost: cfg.StorageEmulatorHost,
		})
		return s, "", err
	}
}
