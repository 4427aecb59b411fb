package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pavelplus/vetis-tools/internal/config"
	"github.com/pavelplus/vetis-tools/internal/infra"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/router"
	"github.com/pavelplus/vetis-tools/internal/service"
	"github.com/pavelplus/vetis-tools/internal/vetis"
	"github.com/pavelplus/vetis-tools/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker wiring happens here (composition root) so the pool has full
	// access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	credsRepo := repository.NewCredentialsRepository(db)
	besRepo := repository.NewBusinessEntityRepository(db)
	entsRepo := repository.NewEnterpriseRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	stockRepo := repository.NewStockRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	registry := vetis.NewClient(vetis.Endpoints{
		ProductiveBaseURL: cfg.RegistryProductiveURL,
		TestBaseURL:       cfg.RegistryTestURL,
	}, auditRepo)

	syncSvc := service.NewSyncService(registry, credsRepo, besRepo, entsRepo, catalogRepo, stockRepo)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	syncW := worker.NewSyncWorker(syncSvc, rdb, cb, dispatcher, cfg.AlertEmail)
	emailW := worker.NewEmailWorker(mailer)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, syncW, emailW)

	worker.StartPopulateCron(ctx, worker.PopulateCronConfig{
		Ents:       entsRepo,
		Stock:      stockRepo,
		Dispatcher: dispatcher,
		CB:         cb,
	})

	r := router.New(cfg, db, rdb, cb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("vetis-tools listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
