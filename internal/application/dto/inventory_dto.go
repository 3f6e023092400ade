package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// VENTA y COMPRA con cantidad positiva; AJUSTE_MANUAL con cantidad con signo.
type RegisterMovementRequest struct {
	MovementID string          `json:"movement_id,omitempty" validate:"omitempty,max=64"`
	ProductID  string          `json:"product_id" validate:"required,max=64"`
	Cause      string          `json:"cause" validate:"required,oneof=VENTA COMPRA AJUSTE_MANUAL"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reference  string          `json:"reference,omitempty" validate:"max=200"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
}

// MovementEventRequest body para POST /api/physical-counts/movement-events (movimientos externos).
type MovementEventRequest struct {
	MovementID string          `json:"movement_id" validate:"required,max=64"`
	ProductID  string          `json:"product_id" validate:"required,max=64"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Delta      decimal.Decimal `json:"delta"`
	Cause      string          `json:"cause" validate:"required,oneof=VENTA COMPRA AJUSTE_MANUAL AJUSTE_CONTEO"`
	Reference  string          `json:"reference,omitempty" validate:"max=200"`
}

// MovementResponse movimiento registrado.
type MovementResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Delta      decimal.Decimal `json:"delta"`
	Cause      string          `json:"cause"`
	Reference  string          `json:"reference,omitempty"`
	CreatedBy  string          `json:"created_by"`
}

// ToMovementResponse mapea la entidad.
func ToMovementResponse(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		OccurredAt: m.OccurredAt,
		Delta:      m.Delta,
		Cause:      m.Cause,
		Reference:  m.Reference,
		CreatedBy:  m.CreatedBy,
	}
}
