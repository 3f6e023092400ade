package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/distlock"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/memory"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/postgres"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/queue"
	httpRouter "github.com/umonge0811/TucoAPP-sub003/internal/interfaces/http"
	"github.com/umonge0811/TucoAPP-sub003/pkg/config"
	pkgjwt "github.com/umonge0811/TucoAPP-sub003/pkg/jwt"
	"github.com/umonge0811/TucoAPP-sub003/pkg/logger"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Bool("redis", cfg.Redis.Enabled()).
		Msg("iniciando aplicación")

	tokens, err := pkgjwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.Expiration)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET requerido")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		tx     physicalcount.TxRunner
		reader repository.Stores
	)
	if cfg.App.UsesPostgres() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		tx = postgres.NewTxRunner(pool)
		reader = postgres.NewStores(pool)
	} else {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		tx = store
		reader = store.Stores()
	}

	deps := physicalcount.Deps{
		Tx:     tx,
		Reader: reader,
		Logger: log.Zerolog(),
		Config: physicalcount.Config{
			ApplyMaxAttempts:     cfg.Count.ApplyMaxAttempts,
			ApplyBaseBackoff:     cfg.Count.ApplyBaseBackoff,
			ApplyMaxBackoff:      cfg.Count.ApplyMaxBackoff,
			ReconcileMaxAttempts: cfg.Count.ReconcileMaxAttempts,
			ReconcileBackoff:     cfg.Count.ReconcileBackoff,
		},
	}

	var localQueue *queue.LocalRequeuer
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		deps.Locker = distlock.New(rdb, distlock.Options{
			TTL:         cfg.Count.LockTTL,
			WaitTimeout: cfg.Count.LockWait,
		}, log.Component("distlock"))

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer asynqClient.Close()
		deps.Requeuer = queue.NewAsynqRequeuer(asynqClient, cfg.Count.ReconcileMaxRetry, log.Component("queue"))
	} else {
		localQueue = queue.NewLocalRequeuer(cfg.Count.LocalQueueSize, retry.Policy{
			MaxAttempts: cfg.Count.ReconcileMaxRetry,
			BaseBackoff: time.Second,
			MaxBackoff:  time.Minute,
		}, cfg.Count.LocalRedrive, log.Component("queue"))
		deps.Requeuer = localQueue
	}

	counts := physicalcount.NewService(deps)
	if localQueue != nil {
		go localQueue.Run(ctx, counts)
	}

	registerMovementUC := inventory.NewRegisterMovementUseCase(tx, counts, retry.Policy{
		MaxAttempts: cfg.Count.ApplyMaxAttempts,
		BaseBackoff: cfg.Count.ApplyBaseBackoff,
		MaxBackoff:  cfg.Count.ApplyMaxBackoff,
	}, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if swaggerAvailable(cfg.HTTP.SwaggerFile, log.Zerolog()) {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Conteo físico de inventario",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Counts:           counts,
		RegisterMovement: registerMovementUC,
		Tokens:           tokens,
		Logger:           log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if localQueue != nil && localQueue.Pending() > 0 {
		log.Warn().Int("pending", localQueue.Pending()).Msg("movimientos sin conciliar en la cola local")
	}

	log.Info().Msg("aplicación detenida")
}

func swaggerAvailable(path string, log zerolog.Logger) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("swagger deshabilitado")
		return false
	}
	return true
}
