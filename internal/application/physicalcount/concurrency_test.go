package physicalcount_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Serialización por sesión (correr con -race)
// ──────────────────────────────────────────────────────────────────────────────

// Dos contadores y una ráfaga de ventas sobre la misma línea terminan en un estado que
// coincide con alguna ejecución en serie: ningún conteo ni movimiento se pierde.
func TestConcurrencia_ConteosYMovimientosMismaSesion(t *testing.T) {
	f := newFixture(t)
	id := f.started(map[string]int64{productX: 50}, counterA, counterB)

	const (
		sales  = 12
		rounds = 4
	)
	counts := map[string]int64{counterA: 45, counterB: 47}

	var wg sync.WaitGroup
	errs := make(chan error, sales+len(counts)*rounds)
	for user, qty := range counts {
		user, qty := user, qty
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, err := f.svc.CaptureCount(f.ctx, physicalcount.CountInput{
					SessionID: id, ProductID: productX, UserID: user, Quantity: dec(qty),
				})
				errs <- err
			}
		}()
	}
	for i := 0; i < sales; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.HandleMovement(f.ctx, physicalcount.MovementEvent{
				MovementID: fmt.Sprintf("venta-%02d", i),
				ProductID:  productX,
				OccurredAt: f.clock.Advance(time.Second),
				Delta:      dec(-1),
				Cause:      entity.MovementCauseSale,
				RecordedBy: "caja-1",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Zero(t, f.requeued.Len(), "ninguna conciliación quedó pendiente")

	movs, err := f.store.Stores().Movements.ListByProduct(f.ctx, productX, nil, nil)
	require.NoError(t, err)
	assert.Len(t, movs, sales)

	line := f.line(id, productX)
	require.True(t, line.IsCounted(), "el conteo no se pierde")
	want, ok := counts[line.CountingUserID]
	require.True(t, ok)
	assert.True(t, line.CountedQuantity.Equal(dec(want)), "la cantidad guardada es la del último contador")
	assert.True(t, line.ExpectedAtCount.Add(line.Drift).Equal(dec(50-sales)),
		"cada venta queda en lo esperado o en la deriva: esperado %s, deriva %s", line.ExpectedAtCount, line.Drift)

	out, err := f.svc.ReconcileLine(f.ctx, id, productX)
	require.NoError(t, err)
	assert.False(t, out.Changed, "recalcular desde el registro no cambia nada")

	assert.Equal(t, 1, f.nonTerminal(id, productX))
	adj := f.active(id, productX)
	require.NotNil(t, adj)
	assert.True(t, adj.SignedQuantity().Equal(line.Discrepancy()),
		"ajuste %s %s, discrepancia %s", adj.Type, adj.Quantity, line.Discrepancy())
}
