package physicalcount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// CountInput conteo físico de un producto.
type CountInput struct {
	SessionID    string
	ProductID    string
	UserID       string
	Quantity     decimal.Decimal
	Observations string
}

// CountResult línea actualizada, ajuste activo resultante (nil si no hay discrepancia)
// y alertas generadas por el conteo.
type CountResult struct {
	Line       *entity.SessionLine
	Adjustment *entity.PendingAdjustment
	Alerts     []*entity.Alert
}

// CaptureCount registra el conteo de un contador asignado. Un recuento sobrescribe el anterior;
// si lo hace otro usuario con un valor distinto se levanta una alerta de conteo conflictivo.
func (s *Service) CaptureCount(ctx context.Context, in CountInput) (*CountResult, error) {
	if in.SessionID == "" || in.ProductID == "" || in.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !inventory.IsWholeNonNegative(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	var res *CountResult
	err := s.withSession(ctx, in.SessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			res = &CountResult{}
			if _, err := loadActiveSession(ctx, st, in.SessionID); err != nil {
				return err
			}
			assigned, err := st.Assignments.Exists(ctx, in.SessionID, in.UserID)
			if err != nil {
				return err
			}
			if !assigned {
				return domain.ErrForbidden
			}
			line, err := st.Lines.Get(ctx, in.SessionID, in.ProductID)
			if err != nil {
				return err
			}
			if line == nil {
				return domain.ErrLineNotFound
			}

			if line.IsCounted() && line.CountingUserID != in.UserID && !line.CountedQuantity.Equal(in.Quantity) {
				msg := fmt.Sprintf("conteo de %s (%s) difiere del registrado por %s (%s)",
					in.UserID, in.Quantity.String(), line.CountingUserID, line.CountedQuantity.String())
				alert, err := s.raiseAlertTx(ctx, st, in.SessionID, in.ProductID, entity.AlertSeverityConflictingCount,
					msg, in.Quantity.Sub(*line.CountedQuantity), in.UserID)
				if err != nil {
					return err
				}
				res.Alerts = append(res.Alerts, alert)
			}

			now := s.now()
			qty := in.Quantity
			line.CountedQuantity = &qty
			line.CountingUserID = in.UserID
			line.Observations = strings.TrimSpace(in.Observations)
			line.CountedAt = &now
			line.ExpectedAtCount, line.Drift, err = lineBaseline(ctx, st, line)
			if err != nil {
				return err
			}
			line.LastModifiedAt = now
			if err := st.Lines.Update(ctx, line); err != nil {
				return err
			}
			res.Line = line

			res.Adjustment, err = s.syncAdjustment(ctx, st, line, in.UserID, "conteo físico")
			if err != nil {
				return err
			}
			return s.audit(ctx, st, in.SessionID, in.ProductID, entity.AuditCountCaptured, in.UserID,
				fmt.Sprintf("contado %s, esperado %s, snapshot %s", qty.String(), line.ExpectedAtCount.String(), line.SystemQuantity.String()))
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("session_id", in.SessionID).Str("product_id", in.ProductID).
		Str("discrepancy", res.Line.Discrepancy().String()).Msg("conteo registrado")
	return res, nil
}

// lineBaseline recalcula desde el registro de movimientos lo que el sistema esperaba al contar
// la línea y la deriva posterior al conteo. Los AJUSTE_CONTEO de la propia sesión no cuentan.
func lineBaseline(ctx context.Context, st repository.Stores, line *entity.SessionLine) (expected, drift decimal.Decimal, err error) {
	movements, err := st.Movements.ListByProduct(ctx, line.ProductID, line.SnapshotAt, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	var snapshotAt time.Time
	if line.SnapshotAt != nil {
		snapshotAt = *line.SnapshotAt
	}
	before, after := inventory.SplitAtCount(externalMovements(movements, line.SessionID), snapshotAt, *line.CountedAt)
	return line.SystemQuantity.Add(before), after, nil
}
