package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

type fakeReprocessor struct {
	mu      sync.Mutex
	calls   int
	failFor int
	err     error
	seen    chan string
}

func (f *fakeReprocessor) ReprocessMovement(_ context.Context, ev physicalcount.MovementEvent) ([]*physicalcount.ReconcileOutcome, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failFor
	f.mu.Unlock()
	if fail {
		return nil, f.err
	}
	if f.seen != nil {
		f.seen <- ev.MovementID
	}
	return []*physicalcount.ReconcileOutcome{{ProductID: ev.ProductID}}, nil
}

// heal hace que las siguientes llamadas tengan éxito.
func (f *fakeReprocessor) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor = 0
}

func (f *fakeReprocessor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleEvent(id string) physicalcount.MovementEvent {
	return physicalcount.MovementEvent{
		MovementID: id,
		ProductID:  "llanta-205-55-r16",
		OccurredAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Delta:      decimal.NewFromInt(-2),
		Cause:      "VENTA",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tarea asynq
// ──────────────────────────────────────────────────────────────────────────────

func TestNewReconcileTask_PayloadConEvento(t *testing.T) {
	task, err := NewReconcileTask(sampleEvent("m-1"), "timeout", 5)
	require.NoError(t, err)
	assert.Equal(t, TaskReconcileMovement, task.Type())

	var p ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "m-1", p.Event.MovementID)
	assert.True(t, p.Event.Delta.Equal(decimal.NewFromInt(-2)))
	assert.Equal(t, "timeout", p.Reason)
}

func TestReconcileHandler_PayloadInvalidoNoSeReintenta(t *testing.T) {
	h := NewReconcileHandler(&fakeReprocessor{}, zerolog.Nop())
	err := h(context.Background(), asynq.NewTask(TaskReconcileMovement, []byte("{no-json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileHandler_EntradaInvalidaNoSeReintenta(t *testing.T) {
	h := NewReconcileHandler(&fakeReprocessor{failFor: 1, err: domain.ErrInvalidInput}, zerolog.Nop())
	task, err := NewReconcileTask(sampleEvent("m-1"), "", 3)
	require.NoError(t, err)

	err = h(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileHandler_ErrorTransitorioSeDevuelveParaReintentar(t *testing.T) {
	boom := errors.New("db caída")
	h := NewReconcileHandler(&fakeReprocessor{failFor: 1, err: boom}, zerolog.Nop())
	task, err := NewReconcileTask(sampleEvent("m-1"), "", 3)
	require.NoError(t, err)

	err = h(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileHandler_Exito(t *testing.T) {
	rp := &fakeReprocessor{}
	h := NewReconcileHandler(rp, zerolog.Nop())
	task, err := NewReconcileTask(sampleEvent("m-1"), "", 3)
	require.NoError(t, err)

	assert.NoError(t, h(context.Background(), task))
	assert.Equal(t, 1, rp.Calls())
}

// ──────────────────────────────────────────────────────────────────────────────
// Cola local
// ──────────────────────────────────────────────────────────────────────────────

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestLocalRequeuer_ReintentaHastaConciliar(t *testing.T) {
	rp := &fakeReprocessor{failFor: 2, err: domain.ErrLedgerConflict, seen: make(chan string, 1)}
	q := NewLocalRequeuer(4, fastPolicy(5), time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, rp)

	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-1"), "conflicto"))

	select {
	case id := <-rp.seen:
		assert.Equal(t, "m-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("el movimiento no se reprocesó")
	}
	assert.Equal(t, 3, rp.Calls())
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, q.Rejected())
}

func TestLocalRequeuer_DeduplicaMovimientoEnCola(t *testing.T) {
	q := NewLocalRequeuer(4, fastPolicy(1), time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-1"), ""))
	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-1"), ""))
	assert.Equal(t, 1, q.Pending())
	assert.Len(t, q.items, 1)
}

func TestLocalRequeuer_ColaLlena(t *testing.T) {
	q := NewLocalRequeuer(1, fastPolicy(1), time.Hour, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-1"), ""))
	err := q.EnqueueMovement(ctx, sampleEvent("m-2"), "")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, q.Pending())
}

// Agotar la política no descarta el movimiento: queda en espera y se reintenta hasta conciliar.
func TestLocalRequeuer_AgotaReintentosYReintentaHastaConciliar(t *testing.T) {
	rp := &fakeReprocessor{failFor: 1000, err: errors.New("sin conexión"), seen: make(chan string, 1)}
	q := NewLocalRequeuer(4, fastPolicy(2), 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, rp)

	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-9"), "sin conexión"))

	assert.Eventually(t, func() bool { return rp.Calls() >= 6 }, 2*time.Second, 5*time.Millisecond,
		"el movimiento debe volver a la cola tras cada ronda fallida")
	assert.Equal(t, 1, q.Pending(), "sigue pendiente mientras la falla persiste")
	assert.Empty(t, q.Rejected())
	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-9"), ""), "no se duplica mientras espera")

	rp.heal()
	select {
	case id := <-rp.seen:
		assert.Equal(t, "m-9", id)
	case <-time.After(2 * time.Second):
		t.Fatal("el movimiento no se concilió al desaparecer la falla")
	}
	assert.Eventually(t, func() bool { return q.Pending() == 0 && q.Parked() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLocalRequeuer_EventoInvalidoSeRechaza(t *testing.T) {
	rp := &fakeReprocessor{failFor: 1000, err: domain.ErrInvalidInput}
	q := NewLocalRequeuer(4, fastPolicy(3), 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx, rp)

	require.NoError(t, q.EnqueueMovement(ctx, sampleEvent("m-x"), ""))

	assert.Eventually(t, func() bool { return len(q.Rejected()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rp.Calls(), "sin reintentos")
	assert.Equal(t, "m-x", q.Rejected()[0].MovementID)
	assert.Zero(t, q.Parked())
	assert.Zero(t, q.Pending())
}
