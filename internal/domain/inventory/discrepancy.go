package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// IsWholePositive indica si qty es un entero estrictamente positivo (unidades físicas).
func IsWholePositive(qty decimal.Decimal) bool {
	return qty.GreaterThan(decimal.Zero) && qty.Equal(qty.Truncate(0))
}

// IsWholeNonNegative indica si qty es un entero >= 0 (cantidad contada válida).
func IsWholeNonNegative(qty decimal.Decimal) bool {
	return !qty.IsNegative() && qty.Equal(qty.Truncate(0))
}

// AdjustmentFor traduce una discrepancia (contado - esperado) al ajuste que la corrige.
// ok es false cuando la discrepancia es cero y no corresponde ajuste.
func AdjustmentFor(discrepancy decimal.Decimal) (typ entity.AdjustmentType, qty decimal.Decimal, ok bool) {
	switch {
	case discrepancy.IsPositive():
		return entity.AdjustmentTypeEntrada, discrepancy, true
	case discrepancy.IsNegative():
		return entity.AdjustmentTypeSalida, discrepancy.Abs(), true
	default:
		return "", decimal.Zero, false
	}
}

// SortMovements ordena por OccurredAt y desempata por Seq (orden de inserción).
func SortMovements(movs []entity.InventoryMovement) {
	sort.SliceStable(movs, func(i, j int) bool {
		if !movs[i].OccurredAt.Equal(movs[j].OccurredAt) {
			return movs[i].OccurredAt.Before(movs[j].OccurredAt)
		}
		return movs[i].Seq < movs[j].Seq
	})
}

// SplitAtCount reparte los movimientos posteriores al snapshot: before suma los de
// (snapshotAt, countedAt], que el conteo ya refleja; after suma los posteriores al conteo.
// Un movimiento en el mismo instante del conteo se considera ya reflejado en él.
func SplitAtCount(movs []entity.InventoryMovement, snapshotAt, countedAt time.Time) (before, after decimal.Decimal) {
	before, after = decimal.Zero, decimal.Zero
	for _, m := range movs {
		switch {
		case !m.OccurredAt.After(snapshotAt):
		case m.OccurredAt.After(countedAt):
			after = after.Add(m.Delta)
		default:
			before = before.Add(m.Delta)
		}
	}
	return before, after
}
