package physicalcount

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// MovementEvent notificación de un movimiento de stock registrado (venta, compra o ajuste).
// MovementID identifica el movimiento y hace idempotente su procesamiento.
type MovementEvent struct {
	MovementID string          `json:"movement_id"`
	ProductID  string          `json:"product_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Delta      decimal.Decimal `json:"delta"`
	Cause      string          `json:"cause"`
	Reference  string          `json:"reference,omitempty"`
	RecordedBy string          `json:"recorded_by,omitempty"`
}

// Validate revisa los campos mínimos del evento.
func (ev MovementEvent) Validate() error {
	if ev.MovementID == "" || ev.ProductID == "" || ev.OccurredAt.IsZero() {
		return domain.ErrInvalidInput
	}
	if !entity.ValidMovementCause(ev.Cause) || ev.Delta.IsZero() {
		return domain.ErrInvalidInput
	}
	return nil
}

// Movement convierte el evento en la entidad del registro de movimientos.
func (ev MovementEvent) Movement(now time.Time) *entity.InventoryMovement {
	return &entity.InventoryMovement{
		ID:         ev.MovementID,
		ProductID:  ev.ProductID,
		OccurredAt: ev.OccurredAt.UTC(),
		Delta:      ev.Delta,
		Cause:      ev.Cause,
		Reference:  ev.Reference,
		CreatedBy:  ev.RecordedBy,
		CreatedAt:  now,
	}
}

// EventFromMovement construye el evento a publicar para un movimiento ya registrado.
func EventFromMovement(m *entity.InventoryMovement) MovementEvent {
	return MovementEvent{
		MovementID: m.ID,
		ProductID:  m.ProductID,
		OccurredAt: m.OccurredAt,
		Delta:      m.Delta,
		Cause:      m.Cause,
		Reference:  m.Reference,
		RecordedBy: m.CreatedBy,
	}
}
