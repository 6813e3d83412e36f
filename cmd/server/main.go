package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/logger"
	"scribe/internal/media"
	"scribe/internal/pipeline"
	"scribe/internal/resilience"
	"scribe/internal/storage"
	"scribe/internal/stt"
)

const serviceName = "scribe"

func main() {
	// Load configuration (.env is optional)
	cfg, err := config.Load(config.WithEnvFile(".env"))
	if err != nil {
		logger.New(logger.Config{}, serviceName).Fatal("failed to load configuration", logger.Fields("error", err.Error()))
	}

	log := logger.New(cfg.Log, serviceName)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	stager, err := storage.NewStager(cfg.TempDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := stager.Close(); err != nil {
			log.WithError(err).Warn("failed to remove staging directory")
		}
	}()
	log.Info("staging directory ready", logger.Fields(logger.FieldPath, stager.Dir()))

	provider, err := stt.NewProvider(cfg, log)
	if err != nil {
		return err
	}

	converter := media.NewFFmpeg(media.FFmpegConfig{
		Binary:  cfg.FFmpegPath,
		Timeout: cfg.ConversionTimeout,
	}, log)

	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "transcribe",
		MaxConcurrent: cfg.MaxConcurrentJobs,
		MaxWait:       cfg.QueueWait,
		OnReject: func(name string, err error) {
			log.Warn("request rejected by bulkhead", logger.Fields("bulkhead", name, "error", err.Error()))
		},
	})

	p := pipeline.New(stager, converter, provider, bulkhead, pipeline.Config{
		Options:             stt.OptionsFromConfig(cfg),
		SoftEmptyTranscript: cfg.SoftEmptyTranscript(),
	}, log)

	router := api.NewRouter(
		api.NewHandler(p, cfg.MaxUploadBytes, log),
		api.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		log,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads and provider calls can be slow.
		WriteTimeout: cfg.ProviderTimeout + cfg.ConversionTimeout + cfg.QueueWait + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.Fields(
			"addr", srv.Addr,
			logger.FieldProvider, provider.Name(),
			"max_concurrent_jobs", bulkhead.MaxConcurrent(),
			"max_upload_bytes", cfg.MaxUploadBytes,
		))
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
