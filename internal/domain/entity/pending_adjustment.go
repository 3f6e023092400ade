package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType dirección del ajuste sobre el stock.
type AdjustmentType string

const (
	AdjustmentTypeEntrada AdjustmentType = "entrada" // incrementa stock
	AdjustmentTypeSalida  AdjustmentType = "salida"  // disminuye stock
)

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t AdjustmentType) Valid() bool {
	return t == AdjustmentTypeEntrada || t == AdjustmentTypeSalida
}

// Sign aplica la dirección del ajuste a una cantidad positiva.
func (t AdjustmentType) Sign(qty decimal.Decimal) decimal.Decimal {
	if t == AdjustmentTypeSalida {
		return qty.Neg()
	}
	return qty
}

// AdjustmentStatus estado del ajuste pendiente.
type AdjustmentStatus string

const (
	AdjustmentStatusPendiente AdjustmentStatus = "Pendiente"
	AdjustmentStatusAprobado  AdjustmentStatus = "Aprobado"
	AdjustmentStatusAplicado  AdjustmentStatus = "Aplicado"
	AdjustmentStatusRechazado AdjustmentStatus = "Rechazado"
)

// IsTerminal Aplicado y Rechazado no admiten más cambios.
func (s AdjustmentStatus) IsTerminal() bool {
	return s == AdjustmentStatusAplicado || s == AdjustmentStatusRechazado
}

// PendingAdjustment corrección de stock propuesta a partir de una discrepancia.
// Existe como máximo un ajuste no terminal por (SessionID, ProductID).
type PendingAdjustment struct {
	ID            string
	SessionID     string
	ProductID     string
	Type          AdjustmentType
	Quantity      decimal.Decimal // siempre positiva; la dirección la da Type
	Reason        string
	Status        AdjustmentStatus
	CreatedBy     string
	CreatedAt     time.Time
	LastUpdatedBy string
	LastUpdatedAt time.Time
	ApprovedBy    string
	ApprovedAt    *time.Time
	AppliedAt     *time.Time
}

// SignedQuantity cantidad con signo a aplicar al stock.
func (a *PendingAdjustment) SignedQuantity() decimal.Decimal {
	return a.Type.Sign(a.Quantity)
}
