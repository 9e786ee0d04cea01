package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoble/chatbridge/internal/attachments"
	"github.com/antoble/chatbridge/internal/chatkit"
	"github.com/antoble/chatbridge/internal/config"
	"github.com/antoble/chatbridge/internal/httpapi"
	"github.com/antoble/chatbridge/internal/observability"
	"github.com/antoble/chatbridge/internal/prompt"
	"github.com/antoble/chatbridge/internal/session"
	"github.com/antoble/chatbridge/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	stores := session.NewStores(session.StoresConfig{
		TranscriptRetention:   cfg.TranscriptRetention,
		TranscriptSweepPeriod: cfg.TranscriptSweepPeriod,
		IDRetention:           cfg.SessionIDRetention,
		IDSweepPeriod:         cfg.TranscriptSweepPeriod,
	})
	stores.Transcripts.SetEvictHook(func(_ string) {
		metrics.StoreEvents.WithLabelValues("transcript", "evicted").Inc()
		metrics.StoreRecords.WithLabelValues("transcript").Set(float64(stores.Transcripts.Len()))
	})
	stores.Threads.SetEvictHook(func(_ string) {
		metrics.StoreEvents.WithLabelValues("thread", "evicted").Inc()
		metrics.StoreRecords.WithLabelValues("thread").Set(float64(stores.Threads.Len()))
	})
	stores.Conversations.SetEvictHook(func(_ string) {
		metrics.StoreEvents.WithLabelValues("conversation", "evicted").Inc()
		metrics.StoreRecords.WithLabelValues("conversation").Set(float64(stores.Conversations.Len()))
	})

	prompts := prompt.NewFileCache(cfg.PromptTemplatePath)

	minter := chatkit.NewClient(chatkit.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
	})

	var deliverer *webhook.Deliverer
	if cfg.WebhookURL != "" {
		deliverer = webhook.NewDeliverer(cfg.WebhookURL, cfg.WebhookTimeout)
		log.Printf("webhook delivery enabled")
	} else {
		log.Printf("webhook delivery disabled: WEBHOOK_URL not set")
	}

	var broker *attachments.Broker
	if cfg.StorageConfigured() {
		signer, err := attachments.NewS3Signer(context.Background(), attachments.S3Config{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			PathStyle: cfg.StoragePathStyle,
		})
		if err != nil {
			log.Fatalf("storage signer init failed: %v", err)
		}
		broker = attachments.NewBroker(signer, cfg.PublicBaseURL, cfg.UploadURLTTL, cfg.DownloadURLTTL)
		log.Printf("attachment storage enabled: bucket %s", cfg.StorageBucket)
	} else {
		log.Printf("attachment storage disabled: STORAGE_BUCKET not set")
	}

	api := httpapi.New(cfg, stores, prompts, minter, deliverer, broker, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	stores.StartJanitors(runCtx)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
