package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/inventory"
)

func TestAdjustmentFor(t *testing.T) {
	typ, qty, ok := inventory.AdjustmentFor(decimal.NewFromInt(-7))
	assert.True(t, ok)
	assert.Equal(t, entity.AdjustmentTypeSalida, typ)
	assert.True(t, qty.Equal(decimal.NewFromInt(7)))

	typ, qty, ok = inventory.AdjustmentFor(decimal.NewFromInt(2))
	assert.True(t, ok)
	assert.Equal(t, entity.AdjustmentTypeEntrada, typ)
	assert.True(t, qty.Equal(decimal.NewFromInt(2)))

	_, _, ok = inventory.AdjustmentFor(decimal.Zero)
	assert.False(t, ok)
}

func TestCantidadesEnteras(t *testing.T) {
	assert.True(t, inventory.IsWholePositive(decimal.NewFromInt(3)))
	assert.False(t, inventory.IsWholePositive(decimal.Zero))
	assert.False(t, inventory.IsWholePositive(decimal.RequireFromString("1.5")))
	assert.True(t, inventory.IsWholeNonNegative(decimal.Zero))
	assert.False(t, inventory.IsWholeNonNegative(decimal.NewFromInt(-1)))
}

func TestSplitAtCount_AntesYDespuesDelConteo(t *testing.T) {
	snap := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	movs := []entity.InventoryMovement{
		{ID: "en-snapshot", OccurredAt: snap, Delta: decimal.NewFromInt(-10)},
		{ID: "a", OccurredAt: t0.Add(-time.Minute), Delta: decimal.NewFromInt(-1)},
		{ID: "b", OccurredAt: t0, Delta: decimal.NewFromInt(-4)},
		{ID: "c", OccurredAt: t0.Add(time.Minute), Delta: decimal.NewFromInt(-2)},
		{ID: "d", OccurredAt: t0.Add(2 * time.Minute), Delta: decimal.NewFromInt(5)},
	}
	before, after := inventory.SplitAtCount(movs, snap, t0)
	assert.True(t, before.Equal(decimal.NewFromInt(-5)), "el mismo instante del conteo ya está reflejado")
	assert.True(t, after.Equal(decimal.NewFromInt(3)))
}

func TestSortMovements_DesempataPorSecuencia(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	movs := []entity.InventoryMovement{
		{ID: "tarde", Seq: 1, OccurredAt: t0.Add(time.Minute)},
		{ID: "segundo", Seq: 3, OccurredAt: t0},
		{ID: "primero", Seq: 2, OccurredAt: t0},
	}
	inventory.SortMovements(movs)
	assert.Equal(t, []string{"primero", "segundo", "tarde"}, []string{movs[0].ID, movs[1].ID, movs[2].ID})
}
