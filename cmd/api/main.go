package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileflow/adapter"
	"fileflow/auth"
	"fileflow/config"
	"fileflow/db"
	"fileflow/filing"
	"fileflow/httpapi"
	"fileflow/message"
	"fileflow/payment"
	"fileflow/run"
	"fileflow/task"
	"fileflow/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		log.Printf("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	filingRepo := filing.NewRepository(pool)
	taskRepo := task.NewRepository(pool)
	messageRepo := message.NewRepository(pool)
	adapterRepo := adapter.NewRepository(pool)
	runRepo := run.NewRepository(pool)
	paymentRepo := payment.NewRepository(pool)
	webhookRepo := &webhook.Repository{}
	recorder := webhook.NewRecorder(pool)

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret)
	filingService := filing.NewService(pool, filingRepo, taskRepo, messageRepo)
	runService := run.NewService(pool, runRepo, filingRepo, adapterRepo, messageRepo, nil)
	paymentService := payment.NewService(pool, paymentRepo, filingRepo, messageRepo)
	webhookService := webhook.NewService(pool, filingRepo, taskRepo, webhookRepo, recorder)

	server := httpapi.NewServer(httpapi.Deps{
		Auth:           authService,
		FilingService:  filingService,
		Filings:        filingRepo,
		RunService:     runService,
		Runs:           runRepo,
		Registry:       adapterRepo,
		WebhookService: webhookService,
		WebhookLog:     recorder,
		PaymentService: paymentService,
		Payments:       paymentRepo,
		Tasks:          taskRepo,
		Messages:       messageRepo,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	log.Printf("listening on %s (env %s)", cfg.ListenAddr, cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}
}
