package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

// WorkerConfig dependencias del worker de conciliación.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      zerolog.Logger
	Concurrency int
	Backoff     retry.Policy // espera entre reintentos de una tarea fallida
	Reprocessor Reprocessor
}

// Worker envuelve el servidor asynq.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

// NewWorker construye el worker con el handler de conciliación registrado.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Reprocessor == nil {
		return nil, errors.New("worker: reprocessor requerido")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	backoff := cfg.Backoff
	if backoff.BaseBackoff <= 0 {
		backoff = retry.Policy{BaseBackoff: time.Second, MaxBackoff: 5 * time.Minute}
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueReconcile: 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return backoff.Backoff(n + 1)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			cfg.Logger.Error().Err(err).Str("task", t.Type()).Msg("tarea de conciliación fallida")
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReconcileMovement, NewReconcileHandler(cfg.Reprocessor, cfg.Logger))
	return &Worker{server: srv, mux: mux, log: cfg.Logger}, nil
}

// Run procesa tareas hasta que ctx se cancele.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info().Str("queue", QueueReconcile).Msg("worker de conciliación iniciado")
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
