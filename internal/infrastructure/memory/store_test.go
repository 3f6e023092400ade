package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/memory"
)

func TestRun_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(10))

	boom := errors.New("boom")
	err := store.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		if _, _, err := st.Stock.ApplyDelta(ctx, "p1", decimal.NewFromInt(-4)); err != nil {
			return err
		}
		_, err := st.Movements.Create(ctx, &entity.InventoryMovement{ID: "m1", ProductID: "p1", Delta: decimal.NewFromInt(-4)})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	live := store.Stores()
	qty, err := live.Stock.GetQuantity(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(10)))
	m, err := live.Movements.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStock_ApplyDeltaNoPermiteNegativo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(2))
	live := store.Stores()

	_, _, err := live.Stock.ApplyDelta(ctx, "p1", decimal.NewFromInt(-3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	old, updated, err := live.Stock.ApplyDelta(ctx, "p1", decimal.NewFromInt(-2))
	require.NoError(t, err)
	assert.True(t, old.Equal(decimal.NewFromInt(2)))
	assert.True(t, updated.IsZero())

	s, err := live.Stock.Get(ctx, "nuevo")
	require.NoError(t, err)
	assert.True(t, s.Quantity.IsZero())
	assert.Zero(t, s.Version)
}

func TestLines_SnapshotUnaSolaVez(t *testing.T) {
	ctx := context.Background()
	live := memory.NewStore().Stores()
	require.NoError(t, live.Lines.CreateBatch(ctx, []*entity.SessionLine{{SessionID: "s1", ProductID: "p1"}}))

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, live.Lines.SetSnapshot(ctx, "s1", "p1", decimal.NewFromInt(7), at))
	assert.ErrorIs(t, live.Lines.SetSnapshot(ctx, "s1", "p1", decimal.NewFromInt(9), at), domain.ErrConflict)

	line, err := live.Lines.Get(ctx, "s1", "p1")
	require.NoError(t, err)
	line.SystemQuantity = decimal.NewFromInt(99)
	require.NoError(t, live.Lines.Update(ctx, line))

	again, err := live.Lines.Get(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.True(t, again.SystemQuantity.Equal(decimal.NewFromInt(7)), "Update no reescribe el snapshot")

	stale := *line
	stale.Version--
	assert.ErrorIs(t, live.Lines.Update(ctx, &stale), domain.ErrConflict)
}

func TestAdjustments_UnActivoPorProducto(t *testing.T) {
	ctx := context.Background()
	live := memory.NewStore().Stores()
	a := &entity.PendingAdjustment{ID: "a1", SessionID: "s1", ProductID: "p1", Status: entity.AdjustmentStatusPendiente}
	require.NoError(t, live.Adjustments.Create(ctx, a))
	b := &entity.PendingAdjustment{ID: "a2", SessionID: "s1", ProductID: "p1", Status: entity.AdjustmentStatusPendiente}
	assert.ErrorIs(t, live.Adjustments.Create(ctx, b), domain.ErrDuplicate)

	a.Status = entity.AdjustmentStatusRechazado
	require.NoError(t, live.Adjustments.Update(ctx, a))
	require.NoError(t, live.Adjustments.Create(ctx, b))

	active, err := live.Adjustments.GetActive(ctx, "s1", "p1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "a2", active.ID)
}

func TestMovements_IdempotentesYOrdenados(t *testing.T) {
	ctx := context.Background()
	live := memory.NewStore().Stores()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	for _, m := range []entity.InventoryMovement{
		{ID: "m2", ProductID: "p1", OccurredAt: t0.Add(2 * time.Minute), Delta: decimal.NewFromInt(-1)},
		{ID: "m1", ProductID: "p1", OccurredAt: t0.Add(time.Minute), Delta: decimal.NewFromInt(-2)},
		{ID: "m0", ProductID: "p1", OccurredAt: t0, Delta: decimal.NewFromInt(5)},
	} {
		m := m
		created, err := live.Movements.Create(ctx, &m)
		require.NoError(t, err)
		assert.True(t, created)
	}
	created, err := live.Movements.Create(ctx, &entity.InventoryMovement{ID: "m1", ProductID: "p1"})
	require.NoError(t, err)
	assert.False(t, created, "mismo ID no se registra dos veces")

	list, err := live.Movements.ListByProduct(ctx, "p1", &t0, nil)
	require.NoError(t, err)
	require.Len(t, list, 2, "el límite inferior es exclusivo")
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "m2", list[1].ID)
}

func TestAlerts_MarkReadIdempotente(t *testing.T) {
	ctx := context.Background()
	live := memory.NewStore().Stores()
	require.NoError(t, live.Alerts.Create(ctx, &entity.Alert{ID: "al1", SessionID: "s1", ProductID: "p1"}))

	first := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, live.Alerts.MarkRead(ctx, "al1", "u1", first))
	require.NoError(t, live.Alerts.MarkRead(ctx, "al1", "u1", first.Add(time.Hour)))

	reads, err := live.Alerts.ListReads(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, reads, 1)
	assert.True(t, reads[0].ReadAt.Equal(first))
}
