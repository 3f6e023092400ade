// Package queue reencola y reprocesa movimientos cuya conciliación falló.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
)

const (
	// TaskReconcileMovement reprocesa un movimiento contra las sesiones abiertas.
	TaskReconcileMovement = "inventario:movimiento:conciliar"
	// QueueReconcile cola dedicada a la conciliación.
	QueueReconcile = "conciliacion"
)

// ReconcilePayload contenido de la tarea.
type ReconcilePayload struct {
	Event      physicalcount.MovementEvent `json:"event"`
	Reason     string                      `json:"reason,omitempty"`
	EnqueuedAt time.Time                   `json:"enqueued_at"`
}

// Reprocessor lo implementa physicalcount.Service.
type Reprocessor interface {
	ReprocessMovement(ctx context.Context, ev physicalcount.MovementEvent) ([]*physicalcount.ReconcileOutcome, error)
}

// NewReconcileTask construye la tarea. El TaskID evita encolar dos veces el mismo movimiento.
func NewReconcileTask(ev physicalcount.MovementEvent, reason string, maxRetry int) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{Event: ev, Reason: reason, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileMovement, body,
		asynq.Queue(QueueReconcile),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID("conciliar:"+ev.MovementID),
	), nil
}

// NewReconcileHandler handler asynq de TaskReconcileMovement.
// Payload inválido o errores de validación terminan la tarea sin reintento.
func NewReconcileHandler(svc Reprocessor, log zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			log.Error().Err(err).Msg("payload de conciliación inválido")
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		ev := payload.Event
		outcomes, err := svc.ReprocessMovement(ctx, ev)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return fmt.Errorf("movimiento %s: %v: %w", ev.MovementID, err, asynq.SkipRetry)
			}
			log.Warn().Err(err).Str("movement_id", ev.MovementID).Str("reason", payload.Reason).
				Msg("reproceso de conciliación fallido")
			return err
		}
		log.Info().Str("movement_id", ev.MovementID).Str("product_id", ev.ProductID).
			Int("sessions", len(outcomes)).Msg("movimiento reconciliado desde la cola")
		return nil
	}
}
