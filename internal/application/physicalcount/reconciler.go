package physicalcount

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

var _ MovementSubscriber = (*Service)(nil)

// maxParallelSessions sesiones conciliadas en paralelo por movimiento.
const maxParallelSessions = 4

// ReconcileOutcome resultado de conciliar una línea con el registro de movimientos.
type ReconcileOutcome struct {
	SessionID   string
	ProductID   string
	Skipped     bool // sesión cerrada, producto fuera de la sesión o movimiento previo al corte
	OutOfOrder  bool
	Changed     bool
	Drift       decimal.Decimal
	Discrepancy decimal.Decimal
	Adjustment  *entity.PendingAdjustment
	Alert       *entity.Alert
}

// HandleMovement registra el movimiento y lo concilia contra cada sesión abierta que contiene el producto.
// Si la conciliación falla el movimiento se reencola; solo devuelve error si tampoco pudo reencolarse.
func (s *Service) HandleMovement(ctx context.Context, ev MovementEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if _, err := s.processMovement(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("movement_id", ev.MovementID).Str("product_id", ev.ProductID).
			Msg("conciliación fallida, se reencola el movimiento")
		if s.requeuer == nil {
			return fmt.Errorf("conciliar movimiento %s: %w", ev.MovementID, err)
		}
		if qerr := s.requeuer.EnqueueMovement(ctx, ev, err.Error()); qerr != nil {
			s.log.Error().Err(qerr).Str("movement_id", ev.MovementID).Msg("no se pudo reencolar el movimiento")
			return fmt.Errorf("reencolar movimiento %s: %w", ev.MovementID, errors.Join(err, qerr))
		}
	}
	return nil
}

// ReprocessMovement vuelve a conciliar un movimiento reencolado y devuelve el error sin reencolar;
// los reintentos quedan a cargo de la cola.
func (s *Service) ReprocessMovement(ctx context.Context, ev MovementEvent) ([]*ReconcileOutcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return s.processMovement(ctx, ev)
}

func (s *Service) processMovement(ctx context.Context, ev MovementEvent) ([]*ReconcileOutcome, error) {
	m := ev.Movement(s.now())
	err := retry.Do(ctx, s.cfg.reconcilePolicy(), isTransient, func(ctx context.Context, _ int) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			_, err := st.Movements.Create(ctx, m)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("registrar movimiento: %w", err)
	}

	var sessions []*entity.InventorySession
	err = retry.Do(ctx, s.cfg.reconcilePolicy(), isTransient, func(ctx context.Context, _ int) error {
		var err error
		sessions, err = s.read.Sessions.ListOpenByProduct(ctx, ev.ProductID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("buscar sesiones abiertas: %w", err)
	}
	if len(sessions) == 0 {
		s.log.Debug().Str("movement_id", m.ID).Str("product_id", m.ProductID).Msg("movimiento sin sesiones abiertas")
		return nil, nil
	}

	outcomes := make([]*ReconcileOutcome, len(sessions))
	var g errgroup.Group
	g.SetLimit(maxParallelSessions)
	for i, session := range sessions {
		i, session := i, session
		if !session.CoversMovementAt(m.OccurredAt) {
			outcomes[i] = &ReconcileOutcome{SessionID: session.ID, ProductID: m.ProductID, Skipped: true}
			continue
		}
		g.Go(func() error {
			out, err := s.reconcileWithRetry(ctx, session.ID, m.ProductID, m)
			if err != nil {
				return fmt.Errorf("sesión %s: %w", session.ID, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	return outcomes, g.Wait()
}

// ReconcileLine recalcula la discrepancia de una línea con todos los movimientos posteriores a su snapshot.
// Es idempotente: repetirla sin movimientos nuevos no cambia nada.
func (s *Service) ReconcileLine(ctx context.Context, sessionID, productID string) (*ReconcileOutcome, error) {
	return s.reconcileWithRetry(ctx, sessionID, productID, nil)
}

func (s *Service) reconcileWithRetry(ctx context.Context, sessionID, productID string, trigger *entity.InventoryMovement) (*ReconcileOutcome, error) {
	var out *ReconcileOutcome
	err := retry.Do(ctx, s.cfg.reconcilePolicy(), isTransient, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.log.Debug().Int("attempt", attempt).Str("session_id", sessionID).Str("product_id", productID).
				Msg("reintentando conciliación")
		}
		var err error
		out, err = s.reconcileLine(ctx, sessionID, productID, trigger)
		return err
	})
	return out, err
}

func (s *Service) reconcileLine(ctx context.Context, sessionID, productID string, trigger *entity.InventoryMovement) (*ReconcileOutcome, error) {
	out := &ReconcileOutcome{SessionID: sessionID, ProductID: productID}
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			*out = ReconcileOutcome{SessionID: sessionID, ProductID: productID}
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if session.Status != entity.SessionStatusInProgress {
				if trigger == nil {
					return domain.ErrSessionNotActive
				}
				s.log.Debug().Str("session_id", sessionID).Str("movement_id", trigger.ID).
					Msg("movimiento ignorado: sesión cerrada")
				out.Skipped = true
				return nil
			}
			line, err := st.Lines.Get(ctx, sessionID, productID)
			if err != nil {
				return err
			}
			if line == nil {
				if trigger == nil {
					return domain.ErrLineNotFound
				}
				out.Skipped = true
				return nil
			}
			if trigger != nil && !session.CoversMovementAt(trigger.OccurredAt) {
				out.Skipped = true
				return nil
			}

			lineChanged := false
			if trigger != nil {
				switch {
				case line.LastMovementAt != nil && trigger.OccurredAt.Before(*line.LastMovementAt):
					out.OutOfOrder = true
					s.log.Warn().Err(domain.ErrMovementOutOfOrder).Str("session_id", sessionID).
						Str("product_id", productID).Str("movement_id", trigger.ID).
						Time("occurred_at", trigger.OccurredAt).Time("last_movement_at", *line.LastMovementAt).
						Msg("movimiento fuera de orden")
				case line.LastMovementAt == nil || trigger.OccurredAt.After(*line.LastMovementAt):
					at := trigger.OccurredAt
					line.LastMovementAt = &at
					lineChanged = true
				}
			}

			if !line.IsCounted() {
				if !lineChanged {
					return nil
				}
				if err := st.Lines.Update(ctx, line); err != nil {
					return err
				}
				return s.audit(ctx, st, sessionID, productID, entity.AuditMovementObserved, SystemActor,
					fmt.Sprintf("movimiento %s (%s) antes del conteo", trigger.ID, trigger.Delta.String()))
			}

			expected, drift, err := lineBaseline(ctx, st, line)
			if err != nil {
				return err
			}
			out.Drift = drift
			if expected.Equal(line.ExpectedAtCount) && drift.Equal(line.Drift) {
				out.Discrepancy = line.Discrepancy()
				if lineChanged {
					return st.Lines.Update(ctx, line)
				}
				return nil
			}

			// cambio de stock que el conteo no reflejaba: llegadas tardías previas al conteo más deriva nueva
			delta := expected.Sub(line.ExpectedAtCount).Add(drift.Sub(line.Drift))
			line.ExpectedAtCount = expected
			line.Drift = drift
			line.LastModifiedAt = s.now()
			if err := st.Lines.Update(ctx, line); err != nil {
				return err
			}
			out.Changed = true
			out.Discrepancy = line.Discrepancy()

			out.Adjustment, err = s.syncAdjustment(ctx, st, line, SystemActor, "conciliación de movimientos posteriores al conteo")
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("movimientos posteriores al conteo de %s cambian el stock en %s; discrepancia esperada %s, se sugiere recontar",
				productID, delta.String(), out.Discrepancy.String())
			out.Alert, err = s.raiseAlertTx(ctx, st, sessionID, productID, entity.AlertSeverityRecountSuggested, msg, delta, SystemActor)
			if err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, productID, entity.AuditMovementReconciled, SystemActor,
				fmt.Sprintf("esperado %s, deriva %s, discrepancia %s", expected.String(), drift.String(), out.Discrepancy.String()))
		})
	})
	if err != nil {
		return nil, err
	}
	if out.Changed {
		s.log.Info().Str("session_id", sessionID).Str("product_id", productID).
			Str("drift", out.Drift.String()).Str("discrepancy", out.Discrepancy.String()).
			Msg("línea conciliada con movimientos posteriores al conteo")
	}
	return out, nil
}

// externalMovements descarta los AJUSTE_CONTEO generados por la propia sesión:
// ya están contabilizados como ajustes aplicados.
func externalMovements(movs []entity.InventoryMovement, sessionID string) []entity.InventoryMovement {
	ref := countReference(sessionID)
	out := movs[:0:0]
	for _, m := range movs {
		if m.Cause == entity.MovementCauseCountAdjust && m.Reference == ref {
			continue
		}
		out = append(out, m)
	}
	return out
}
