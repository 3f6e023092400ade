package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Causas de movimiento de inventario.
const (
	MovementCauseSale         = "VENTA"
	MovementCausePurchase     = "COMPRA"
	MovementCauseManualAdjust = "AJUSTE_MANUAL"
	MovementCauseCountAdjust  = "AJUSTE_CONTEO"
)

// ValidMovementCause indica si la causa es reconocida.
func ValidMovementCause(c string) bool {
	switch c {
	case MovementCauseSale, MovementCausePurchase, MovementCauseManualAdjust, MovementCauseCountAdjust:
		return true
	}
	return false
}

// InventoryMovement movimiento de stock registrado (venta, compra o ajuste).
// Seq es el orden de inserción y desempata movimientos con el mismo OccurredAt.
type InventoryMovement struct {
	ID         string
	Seq        int64
	ProductID  string
	OccurredAt time.Time
	Delta      decimal.Decimal // con signo: negativo salida, positivo entrada
	Cause      string
	Reference  string
	CreatedBy  string
	CreatedAt  time.Time
}
