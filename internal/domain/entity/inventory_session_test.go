package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

func TestSessionStatus_Transiciones(t *testing.T) {
	cases := []struct {
		from, to entity.SessionStatus
		ok       bool
	}{
		{entity.SessionStatusScheduled, entity.SessionStatusInProgress, true},
		{entity.SessionStatusScheduled, entity.SessionStatusCancelled, true},
		{entity.SessionStatusScheduled, entity.SessionStatusCompleted, false},
		{entity.SessionStatusInProgress, entity.SessionStatusCompleted, true},
		{entity.SessionStatusInProgress, entity.SessionStatusCancelled, true},
		{entity.SessionStatusCompleted, entity.SessionStatusCancelled, false},
		{entity.SessionStatusCancelled, entity.SessionStatusInProgress, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
	assert.True(t, entity.SessionStatusCompleted.IsTerminal())
	assert.False(t, entity.SessionStatus("ABIERTA").Valid())
}

func TestInventorySession_CoversMovementAt(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s := &entity.InventorySession{Status: entity.SessionStatusInProgress, StartedAt: &start}
	assert.True(t, s.CoversMovementAt(start))
	assert.True(t, s.CoversMovementAt(start.Add(time.Hour)))
	assert.False(t, s.CoversMovementAt(start.Add(-time.Second)))

	s.Status = entity.SessionStatusCompleted
	assert.False(t, s.CoversMovementAt(start.Add(time.Hour)))
}

func TestSessionLine_Discrepancy(t *testing.T) {
	l := &entity.SessionLine{SystemQuantity: decimal.NewFromInt(50)}
	assert.True(t, l.Discrepancy().IsZero(), "sin conteo no hay discrepancia")

	counted := decimal.NewFromInt(45)
	l.CountedQuantity = &counted
	l.ExpectedAtCount = decimal.NewFromInt(50)
	l.Drift = decimal.NewFromInt(-2)
	assert.True(t, l.Discrepancy().Equal(decimal.NewFromInt(-7)))

	// una venta previa al conteo ya la vio el contador: se compara contra lo esperado, no contra el snapshot
	l.ExpectedAtCount = decimal.NewFromInt(48)
	l.Drift = decimal.Zero
	assert.True(t, l.Discrepancy().Equal(decimal.NewFromInt(-3)))
}

func TestPendingAdjustment_SignedQuantity(t *testing.T) {
	adj := &entity.PendingAdjustment{Type: entity.AdjustmentTypeSalida, Quantity: decimal.NewFromInt(3)}
	assert.True(t, adj.SignedQuantity().Equal(decimal.NewFromInt(-3)))
	adj.Type = entity.AdjustmentTypeEntrada
	assert.True(t, adj.SignedQuantity().Equal(decimal.NewFromInt(3)))
	assert.True(t, entity.AdjustmentStatusAplicado.IsTerminal())
	assert.False(t, entity.AdjustmentStatusAprobado.IsTerminal())
}
