package physicalcount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

// LedgerMutation escritura en el libro de existencias producida por un ajuste.
type LedgerMutation struct {
	AdjustmentID string
	ProductID    string
	MovementID   string
	Delta        decimal.Decimal
	Before       decimal.Decimal
	After        decimal.Decimal
}

// ApplyResult resultado de aplicar los ajustes aprobados de una sesión.
type ApplyResult struct {
	Session *entity.InventorySession
	Applied []LedgerMutation
	// AlreadyCompleted la sesión ya estaba COMPLETADA: solo se aplicaron ajustes aprobados rezagados.
	AlreadyCompleted bool
}

// CompleteSession completa la sesión aplicando sus ajustes aprobados en una sola transacción.
func (s *Service) CompleteSession(ctx context.Context, sessionID, actorID string) (*ApplyResult, error) {
	return s.ApplyApprovedAdjustments(ctx, sessionID, actorID)
}

// ApplyApprovedAdjustments aplica al stock todos los ajustes Aprobado de la sesión y la deja COMPLETADA.
// El lote es todo o nada. Sobre una sesión ya COMPLETADA solo actúa sobre ajustes aún no aplicados,
// por lo que repetir la llamada no vuelve a mutar el stock.
func (s *Service) ApplyApprovedAdjustments(ctx context.Context, sessionID, actorID string) (*ApplyResult, error) {
	var (
		res       *ApplyResult
		movements []*entity.InventoryMovement
	)
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		ctx, done := s.inflight.begin(ctx, sessionID)
		defer done()
		return retry.Do(ctx, s.cfg.applyPolicy(), isLedgerConflict, func(ctx context.Context, attempt int) error {
			if attempt > 1 {
				s.log.Warn().Int("attempt", attempt).Str("session_id", sessionID).Msg("reintentando aplicación por conflicto en stock")
			}
			return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
				var err error
				res, movements, err = s.applyTx(ctx, st, sessionID, actorID)
				return err
			})
		})
	})
	if err != nil {
		ev := s.log.Warn()
		if errors.Is(err, domain.ErrLedgerConflict) || errors.Is(err, domain.ErrApplyAborted) {
			ev = s.log.Error()
		}
		ev.Err(err).Str("session_id", sessionID).Msg("aplicación de ajustes fallida; la sesión sigue abierta")
		return nil, err
	}
	if res.Session.Status.IsTerminal() {
		s.locker.Release(sessionID)
	}
	s.log.Info().Str("session_id", sessionID).Int("applied", len(res.Applied)).
		Bool("already_completed", res.AlreadyCompleted).Msg("ajustes aplicados")

	for _, m := range movements {
		if err := s.HandleMovement(ctx, EventFromMovement(m)); err != nil {
			s.log.Error().Err(err).Str("movement_id", m.ID).Msg("no se pudo propagar el ajuste a otras sesiones")
		}
	}
	return res, nil
}

func isLedgerConflict(err error) bool {
	return errors.Is(err, domain.ErrLedgerConflict) || errors.Is(err, domain.ErrConflict)
}

// checkCompletion condiciones para pasar a COMPLETADA.
func checkCompletion(ctx context.Context, st repository.Stores, sessionID string) error {
	lines, err := st.Lines.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	uncounted := 0
	for _, l := range lines {
		if !l.IsCounted() {
			uncounted++
		}
	}
	if uncounted > 0 {
		return fmt.Errorf("%w: %d", domain.ErrUncountedLines, uncounted)
	}
	unack, err := unacknowledgedAlerts(ctx, st, sessionID)
	if err != nil {
		return err
	}
	if unack > 0 {
		return fmt.Errorf("%w: %d", domain.ErrUnresolvedAlerts, unack)
	}
	pending, err := st.Adjustments.ListByStatus(ctx, sessionID, entity.AdjustmentStatusPendiente)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: %d", domain.ErrPendingAdjustments, len(pending))
	}
	return nil
}

// countReference referencia de los movimientos AJUSTE_CONTEO generados por la sesión.
func countReference(sessionID string) string {
	return "conteo:" + sessionID
}

// countMovementID identificador estable del movimiento generado por un ajuste.
func countMovementID(adjustmentID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("ajuste-conteo:"+adjustmentID)).String()
}

func (s *Service) applyTx(ctx context.Context, st repository.Stores, sessionID, actorID string) (*ApplyResult, []*entity.InventoryMovement, error) {
	session, err := loadSession(ctx, st, sessionID)
	if err != nil {
		return nil, nil, err
	}
	res := &ApplyResult{Session: session}
	switch session.Status {
	case entity.SessionStatusCompleted:
		res.AlreadyCompleted = true
	case entity.SessionStatusInProgress:
		if err := checkCompletion(ctx, st, sessionID); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, domain.ErrSessionNotActive
	}

	approved, err := st.Adjustments.ListByStatus(ctx, sessionID, entity.AdjustmentStatusAprobado)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	movements := make([]*entity.InventoryMovement, 0, len(approved))
	for _, adj := range approved {
		if err := abortCause(ctx); err != nil {
			return nil, nil, err
		}
		mut, mov, err := s.applyOne(ctx, st, adj, actorID, now)
		if err != nil {
			return nil, nil, err
		}
		movements = append(movements, mov)
		res.Applied = append(res.Applied, mut)
	}
	if err := abortCause(ctx); err != nil {
		return nil, nil, err
	}

	if session.Status == entity.SessionStatusInProgress {
		session.Status = entity.SessionStatusCompleted
		session.CompletedAt = &now
		session.UpdatedAt = now
		if err := st.Sessions.Update(ctx, session); err != nil {
			return nil, nil, err
		}
		if err := s.audit(ctx, st, sessionID, "", entity.AuditSessionCompleted, actorID,
			fmt.Sprintf("%d ajustes aplicados", len(res.Applied))); err != nil {
			return nil, nil, err
		}
	}
	return res, movements, nil
}

// applyOne escribe un ajuste Aprobado en el libro de existencias (compare-and-update contra el stock vigente),
// registra el movimiento AJUSTE_CONTEO y marca el ajuste como Aplicado.
func (s *Service) applyOne(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment,
	actorID string, now time.Time) (LedgerMutation, *entity.InventoryMovement, error) {
	delta := adj.SignedQuantity()
	before, after, err := st.Stock.ApplyDelta(ctx, adj.ProductID, delta)
	if errors.Is(err, domain.ErrInsufficientStock) {
		s.log.Warn().Str("session_id", adj.SessionID).Str("adjustment_id", adj.ID).Str("product_id", adj.ProductID).
			Str("type", string(adj.Type)).Str("quantity", adj.Quantity.String()).
			Msg("el ajuste dejaría el stock en negativo; recontar o rechazar la línea")
		return LedgerMutation{}, nil, fmt.Errorf("ajuste %s: %s de %s unidades de %s deja el stock en negativo: %w",
			adj.ID, adj.Type, adj.Quantity.String(), adj.ProductID, err)
	}
	if err != nil {
		return LedgerMutation{}, nil, fmt.Errorf("ajuste %s (%s): %w", adj.ID, adj.ProductID, err)
	}
	mov := &entity.InventoryMovement{
		ID:         countMovementID(adj.ID),
		ProductID:  adj.ProductID,
		OccurredAt: now,
		Delta:      delta,
		Cause:      entity.MovementCauseCountAdjust,
		Reference:  countReference(adj.SessionID),
		CreatedBy:  actorID,
		CreatedAt:  now,
	}
	if _, err := st.Movements.Create(ctx, mov); err != nil {
		return LedgerMutation{}, nil, err
	}
	adj.Status = entity.AdjustmentStatusAplicado
	adj.AppliedAt = &now
	adj.LastUpdatedBy = actorID
	adj.LastUpdatedAt = now
	if err := st.Adjustments.Update(ctx, adj); err != nil {
		return LedgerMutation{}, nil, err
	}
	if err := s.audit(ctx, st, adj.SessionID, adj.ProductID, entity.AuditAdjustmentApplied, actorID,
		fmt.Sprintf("%s: %s -> %s", delta.String(), before.String(), after.String())); err != nil {
		return LedgerMutation{}, nil, err
	}
	return LedgerMutation{
		AdjustmentID: adj.ID,
		ProductID:    adj.ProductID,
		MovementID:   mov.ID,
		Delta:        delta,
		Before:       before,
		After:        after,
	}, mov, nil
}

// ApplyAdjustment aplica de inmediato un único ajuste Aprobado con la sesión EN_PROGRESO.
// Lo aplicado se conserva aunque la sesión se cancele después; la discrepancia restante
// de la línea se sigue corrigiendo con un nuevo ajuste.
func (s *Service) ApplyAdjustment(ctx context.Context, adjustmentID, actorID string) (*LedgerMutation, error) {
	probe, err := s.read.Adjustments.GetByID(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, domain.ErrNotFound
	}
	sessionID := probe.SessionID
	var (
		mut *LedgerMutation
		mov *entity.InventoryMovement
	)
	err = s.withSession(ctx, sessionID, func(ctx context.Context) error {
		ctx, done := s.inflight.begin(ctx, sessionID)
		defer done()
		return retry.Do(ctx, s.cfg.applyPolicy(), isLedgerConflict, func(ctx context.Context, _ int) error {
			return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
				if _, err := loadActiveSession(ctx, st, sessionID); err != nil {
					return err
				}
				adj, err := st.Adjustments.GetByID(ctx, adjustmentID)
				if err != nil {
					return err
				}
				if adj == nil {
					return domain.ErrNotFound
				}
				if adj.Status != entity.AdjustmentStatusAprobado {
					return domain.ErrAdjustmentNotEditable
				}
				m, movement, err := s.applyOne(ctx, st, adj, actorID, s.now())
				if err != nil {
					return err
				}
				if err := abortCause(ctx); err != nil {
					return err
				}
				mut, mov = &m, movement
				return nil
			})
		})
	})
	if err != nil {
		s.log.Warn().Err(err).Str("adjustment_id", adjustmentID).Msg("aplicación anticipada fallida")
		return nil, err
	}
	s.log.Info().Str("session_id", sessionID).Str("adjustment_id", adjustmentID).Msg("ajuste aplicado anticipadamente")
	if err := s.HandleMovement(ctx, EventFromMovement(mov)); err != nil {
		s.log.Error().Err(err).Str("movement_id", mov.ID).Msg("no se pudo propagar el ajuste a otras sesiones")
	}
	return mut, nil
}
