package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/erp-ledger/internal/bootstrap"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/jobs"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

// Worker de tareas en segundo plano: reconstrucción de niveles por empresa (a demanda y programada).
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("REDIS_ADDR es requerido para el worker")
	}
	if cfg.App.IsMemoryStorage() {
		log.Fatal().Msg("el worker requiere STORAGE_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer storage.Close()

	// La caché se comparte con la API: cada reconstrucción incrementa la versión de la empresa.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	svc, err := bootstrap.NewServices(cfg, storage, bootstrap.Options{
		Cache: cache.NewLevelCache(rdb, cfg.Redis.CacheTTL),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("servicios")
	}

	wlog := log.Component("worker")
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpt: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency:     cfg.Jobs.Concurrency,
		RecalculateCron: cfg.Jobs.RecalculateCron,
		Timezone:        cfg.Jobs.Timezone,
		Handlers:        jobs.NewHandlers(svc.Ledger, storage.Companies, *wlog.Zerolog()),
		Logger:          *wlog.Zerolog(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	log.Info().
		Int("concurrency", cfg.Jobs.Concurrency).
		Str("cron", cfg.Jobs.RecalculateCron).
		Msg("iniciando worker")
	if err := worker.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker finalizado")
	}
	log.Info().Msg("worker detenido")
}
