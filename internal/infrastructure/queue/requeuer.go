package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
)

var _ physicalcount.MovementRequeuer = (*AsynqRequeuer)(nil)

// AsynqRequeuer encola movimientos en Redis para que los procese cmd/worker.
type AsynqRequeuer struct {
	client   *asynq.Client
	maxRetry int
	log      zerolog.Logger
}

// NewAsynqRequeuer construye el requeuer sobre un cliente asynq.
func NewAsynqRequeuer(client *asynq.Client, maxRetry int, log zerolog.Logger) *AsynqRequeuer {
	if maxRetry <= 0 {
		maxRetry = 10
	}
	return &AsynqRequeuer{client: client, maxRetry: maxRetry, log: log}
}

// EnqueueMovement encola la tarea; si el movimiento ya está en cola no hace nada.
func (r *AsynqRequeuer) EnqueueMovement(ctx context.Context, ev physicalcount.MovementEvent, reason string) error {
	task, err := NewReconcileTask(ev, reason, r.maxRetry)
	if err != nil {
		return fmt.Errorf("build reconcile task: %w", err)
	}
	info, err := r.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			r.log.Debug().Str("movement_id", ev.MovementID).Msg("movimiento ya encolado")
			return nil
		}
		return fmt.Errorf("enqueue reconcile task: %w", err)
	}
	r.log.Info().Str("movement_id", ev.MovementID).Str("task_id", info.ID).Str("queue", info.Queue).
		Msg("movimiento reencolado para conciliación")
	return nil
}
