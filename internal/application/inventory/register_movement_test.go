package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/dto"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/memory"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []physicalcount.MovementEvent
	err    error
}

func (p *recordingPublisher) HandleMovement(_ context.Context, ev physicalcount.MovementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// conflictingTx hace fallar las primeras N transacciones con ErrLedgerConflict.
type conflictingTx struct {
	inner    *memory.Store
	failures int
	calls    int
}

func (c *conflictingTx) Run(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	c.calls++
	if c.calls <= c.failures {
		return domain.ErrLedgerConflict
	}
	return c.inner.Run(ctx, fn)
}

var fixedNow = time.Date(2026, 4, 6, 15, 30, 0, 0, time.UTC)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func newUseCase(store *memory.Store, pub inventory.MovementPublisher) *inventory.RegisterMovementUseCase {
	return inventory.NewRegisterMovementUseCase(store, pub, fastPolicy(), zerolog.Nop()).
		WithClock(func() time.Time { return fixedNow })
}

func stockOf(t *testing.T, store *memory.Store, productID string) decimal.Decimal {
	t.Helper()
	qty, err := store.Stores().Stock.GetQuantity(context.Background(), productID)
	require.NoError(t, err)
	return qty
}

// ──────────────────────────────────────────────────────────────────────────────
// Signo del movimiento según la causa
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_SignoPorCausa(t *testing.T) {
	cases := []struct {
		name  string
		cause string
		qty   int64
		delta int64
		stock int64
	}{
		{"venta descuenta", entity.MovementCauseSale, 3, -3, 17},
		{"compra suma", entity.MovementCausePurchase, 4, 4, 24},
		{"ajuste manual negativo", entity.MovementCauseManualAdjust, -2, -2, 18},
		{"ajuste manual positivo", entity.MovementCauseManualAdjust, 6, 6, 26},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			store.SeedStock("p1", decimal.NewFromInt(20))
			pub := &recordingPublisher{}

			m, err := newUseCase(store, pub).RegisterMovement(context.Background(), inventory.MovementInputDTO{
				UserID: "u1", ProductID: "p1", Cause: tc.cause, Quantity: decimal.NewFromInt(tc.qty),
			})
			require.NoError(t, err)
			assert.True(t, m.Delta.Equal(decimal.NewFromInt(tc.delta)))
			assert.Equal(t, fixedNow, m.OccurredAt)
			assert.NotEmpty(t, m.ID)
			assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(tc.stock)))

			require.Len(t, pub.events, 1)
			assert.Equal(t, m.ID, pub.events[0].MovementID)
			assert.Equal(t, "u1", pub.events[0].RecordedBy)
		})
	}
}

func TestRegisterMovement_EntradasInvalidas(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(5))
	uc := newUseCase(store, nil)
	ctx := context.Background()

	_, err := uc.RegisterMovement(ctx, inventory.MovementInputDTO{UserID: "u1", ProductID: "p1",
		Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = uc.RegisterMovement(ctx, inventory.MovementInputDTO{UserID: "u1", ProductID: "p1",
		Cause: entity.MovementCausePurchase, Quantity: decimal.RequireFromString("1.5")})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = uc.RegisterMovement(ctx, inventory.MovementInputDTO{UserID: "u1", ProductID: "p1",
		Cause: entity.MovementCauseManualAdjust, Quantity: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// AJUSTE_CONTEO es exclusivo del motor de conteo
	_, err = uc.RegisterMovement(ctx, inventory.MovementInputDTO{UserID: "u1", ProductID: "p1",
		Cause: entity.MovementCauseCountAdjust, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RegisterMovement(ctx, inventory.MovementInputDTO{ProductID: "p1",
		Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(5)))
}

func TestRegisterMovement_StockInsuficiente(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(2))
	pub := &recordingPublisher{}

	_, err := newUseCase(store, pub).RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u1", ProductID: "p1", Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(3),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(2)))
	assert.Empty(t, pub.events)

	m, err := store.Stores().Movements.ListByProduct(context.Background(), "p1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y reintentos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_ReentregaNoDuplicaStock(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(10))
	uc := newUseCase(store, nil)
	in := inventory.MovementInputDTO{MovementID: "pos-1", UserID: "u1", ProductID: "p1",
		Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(4)}

	first, err := uc.RegisterMovement(context.Background(), in)
	require.NoError(t, err)
	second, err := uc.RegisterMovement(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(6)))
}

func TestRegisterMovement_ReintentaConflictoDeStock(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(10))
	tx := &conflictingTx{inner: store, failures: 2}
	uc := inventory.NewRegisterMovementUseCase(tx, nil, fastPolicy(), zerolog.Nop())

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u1", ProductID: "p1", Cause: entity.MovementCausePurchase, Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tx.calls)
	assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(11)))
}

func TestRegisterMovement_AgotaReintentos(t *testing.T) {
	store := memory.NewStore()
	tx := &conflictingTx{inner: store, failures: 10}
	uc := inventory.NewRegisterMovementUseCase(tx, nil, fastPolicy(), zerolog.Nop())

	_, err := uc.RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u1", ProductID: "p1", Cause: entity.MovementCausePurchase, Quantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrLedgerConflict)
	assert.Equal(t, 3, tx.calls)
}

func TestRegisterMovement_FalloDelPublicadorNoRevierte(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(10))
	pub := &recordingPublisher{err: errors.New("cola caída")}

	m, err := newUseCase(store, pub).RegisterMovement(context.Background(), inventory.MovementInputDTO{
		UserID: "u1", ProductID: "p1", Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, stockOf(t, store, "p1").Equal(decimal.NewFromInt(9)))
}

func TestRegisterMovementFromRequest_RespetaFechaExplicita(t *testing.T) {
	store := memory.NewStore()
	store.SeedStock("p1", decimal.NewFromInt(10))
	at := time.Date(2026, 4, 6, 9, 0, 0, 0, time.FixedZone("CST", -6*3600))

	m, err := newUseCase(store, nil).RegisterMovementFromRequest(context.Background(), "u9", dto.RegisterMovementRequest{
		ProductID: "p1", Cause: entity.MovementCauseSale, Quantity: decimal.NewFromInt(2),
		Reference: "factura 0042", OccurredAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, at.UTC(), m.OccurredAt)
	assert.Equal(t, "u9", m.CreatedBy)
	assert.Equal(t, "factura 0042", m.Reference)
}
