// Worker de conciliación: consume los movimientos reencolados por la API y los vuelve a conciliar
// contra las sesiones de conteo abiertas. Requiere PostgreSQL y Redis.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/distlock"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/postgres"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/queue"
	"github.com/umonge0811/TucoAPP-sub003/pkg/config"
	"github.com/umonge0811/TucoAPP-sub003/pkg/logger"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-worker"})

	if !cfg.App.UsesPostgres() || !cfg.Redis.Enabled() {
		log.Fatal().Msg("el worker necesita STORAGE=postgres y REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	redisOpts := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

	// Un fallo durante el reproceso vuelve a la misma cola.
	asynqClient := asynq.NewClient(redisOpts)
	defer asynqClient.Close()

	counts := physicalcount.NewService(physicalcount.Deps{
		Tx:       postgres.NewTxRunner(pool),
		Reader:   postgres.NewStores(pool),
		Locker:   distlock.New(rdb, distlock.Options{TTL: cfg.Count.LockTTL, WaitTimeout: cfg.Count.LockWait}, log.Component("distlock")),
		Requeuer: queue.NewAsynqRequeuer(asynqClient, cfg.Count.ReconcileMaxRetry, log.Component("queue")),
		Logger:   log.Zerolog(),
		Config: physicalcount.Config{
			ReconcileMaxAttempts: cfg.Count.ReconcileMaxAttempts,
			ReconcileBackoff:     cfg.Count.ReconcileBackoff,
		},
	})

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      log.Component("worker"),
		Concurrency: cfg.Count.WorkerConcurrency,
		Backoff:     retry.Policy{BaseBackoff: time.Second, MaxBackoff: 5 * time.Minute},
		Reprocessor: counts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("worker")
	}

	log.Info().Str("env", cfg.App.Env).Int("concurrency", cfg.Count.WorkerConcurrency).Msg("iniciando worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
