package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionLine línea de producto dentro de una sesión de conteo.
// SystemQuantity se congela al iniciar la sesión y no vuelve a escribirse.
type SessionLine struct {
	SessionID       string
	ProductID       string
	SystemQuantity  decimal.Decimal
	SnapshotAt      *time.Time
	CountedQuantity *decimal.Decimal
	CountingUserID  string
	Observations    string
	CountedAt       *time.Time
	// ExpectedAtCount stock que el sistema esperaba al contar: snapshot más los movimientos
	// externos en (SnapshotAt, CountedAt].
	ExpectedAtCount decimal.Decimal
	// Drift suma de movimientos posteriores al conteo ya incorporados a la discrepancia.
	Drift          decimal.Decimal
	LastMovementAt *time.Time
	Version        int64
	LastModifiedAt time.Time
}

// IsCounted indica si la línea ya tiene conteo físico.
func (l *SessionLine) IsCounted() bool {
	return l.CountedQuantity != nil
}

// Discrepancy devuelve contado - esperado al contar + deriva. Cero si la línea no tiene conteo.
func (l *SessionLine) Discrepancy() decimal.Decimal {
	if l.CountedQuantity == nil {
		return decimal.Zero
	}
	return l.CountedQuantity.Sub(l.ExpectedAtCount).Add(l.Drift)
}
