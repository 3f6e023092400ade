package physicalcount_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	adminID  = "admin-1"
	counterA = "contador-a"
	counterB = "contador-b"
	counterC = "contador-c"
	productX = "llanta-205-55-r16"
	productY = "llanta-195-65-r15"
	productZ = "aro-r15"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// clock reloj controlable: cada Advance mueve el tiempo hacia adelante.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

type recordingRequeuer struct {
	mu     sync.Mutex
	events []physicalcount.MovementEvent
}

func (r *recordingRequeuer) EnqueueMovement(_ context.Context, ev physicalcount.MovementEvent, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingRequeuer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// hookedTx envuelve los repositorios de cada transacción (inyección de fallos).
type hookedTx struct {
	inner physicalcount.TxRunner
	wrap  func(repository.Stores) repository.Stores
}

func (h hookedTx) Run(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	return h.inner.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		return fn(ctx, h.wrap(st))
	})
}

type stockHook struct {
	repository.StockRepository
	hook func(ctx context.Context, productID string) error
}

func (s stockHook) ApplyDelta(ctx context.Context, productID string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if err := s.hook(ctx, productID); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return s.StockRepository.ApplyDelta(ctx, productID, delta)
}

// listFault error activable en caliente para las lecturas del registro de movimientos.
type listFault struct {
	mu  sync.Mutex
	err error
}

func (l *listFault) set(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *listFault) get() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

type movementHook struct {
	repository.InventoryMovementRepository
	fault *listFault
}

func (m movementHook) ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]entity.InventoryMovement, error) {
	if err := m.fault.get(); err != nil {
		return nil, err
	}
	return m.InventoryMovementRepository.ListByProduct(ctx, productID, from, to)
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	svc      *physicalcount.Service
	clock    *clock
	requeued *recordingRequeuer
}

type option func(f *fixture, d *physicalcount.Deps)

func withStockHook(hook func(ctx context.Context, productID string) error) option {
	return func(f *fixture, d *physicalcount.Deps) {
		d.Tx = hookedTx{inner: f.store, wrap: func(st repository.Stores) repository.Stores {
			st.Stock = stockHook{StockRepository: st.Stock, hook: hook}
			return st
		}}
	}
}

func withMovementListFault(fault *listFault) option {
	return func(f *fixture, d *physicalcount.Deps) {
		d.Tx = hookedTx{inner: f.store, wrap: func(st repository.Stores) repository.Stores {
			st.Movements = movementHook{InventoryMovementRepository: st.Movements, fault: fault}
			return st
		}}
	}
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memory.NewStore(),
		clock:    newClock(),
		requeued: &recordingRequeuer{},
	}
	deps := physicalcount.Deps{
		Tx:       f.store,
		Reader:   f.store.Stores(),
		Requeuer: f.requeued,
		Logger:   zerolog.Nop(),
		Config: physicalcount.Config{
			ApplyMaxAttempts:     3,
			ApplyBaseBackoff:     time.Millisecond,
			ApplyMaxBackoff:      2 * time.Millisecond,
			ReconcileMaxAttempts: 2,
			ReconcileBackoff:     time.Millisecond,
		},
	}
	for _, o := range opts {
		o(f, &deps)
	}
	f.svc = physicalcount.NewService(deps).WithClock(f.clock.Now)
	return f
}

// scheduled crea una sesión PROGRAMADA con stock sembrado y contadores asignados.
func (f *fixture) scheduled(stock map[string]int64, counters ...string) string {
	f.t.Helper()
	products := make([]string, 0, len(stock))
	for p, qty := range stock {
		f.store.SeedStock(p, dec(qty))
		products = append(products, p)
	}
	sort.Strings(products)
	session, err := f.svc.ScheduleSession(f.ctx, physicalcount.ScheduleInput{
		Title:         "Conteo mensual bodega principal",
		ScheduledDate: f.clock.Now().Add(24 * time.Hour),
		ProductIDs:    products,
		CreatedBy:     adminID,
	})
	require.NoError(f.t, err)
	for _, c := range counters {
		_, err := f.svc.AssignUser(f.ctx, session.ID, c, adminID)
		require.NoError(f.t, err)
	}
	return session.ID
}

// started como scheduled pero además inicia la sesión (toma el snapshot).
func (f *fixture) started(stock map[string]int64, counters ...string) string {
	f.t.Helper()
	id := f.scheduled(stock, counters...)
	f.clock.Advance(time.Minute)
	_, err := f.svc.StartSession(f.ctx, id, adminID)
	require.NoError(f.t, err)
	f.clock.Advance(time.Minute)
	return id
}

func (f *fixture) count(sessionID, userID, productID string, qty int64) *physicalcount.CountResult {
	f.t.Helper()
	res, err := f.svc.CaptureCount(f.ctx, physicalcount.CountInput{
		SessionID: sessionID, ProductID: productID, UserID: userID, Quantity: dec(qty),
	})
	require.NoError(f.t, err)
	f.clock.Advance(time.Minute)
	return res
}

// movement registra un movimiento externo: mueve el stock vivo y lo publica al conciliador.
func (f *fixture) movement(id, productID, cause string, delta int64) physicalcount.MovementEvent {
	f.t.Helper()
	_, _, err := f.store.Stores().Stock.ApplyDelta(f.ctx, productID, dec(delta))
	require.NoError(f.t, err)
	ev := physicalcount.MovementEvent{
		MovementID: id,
		ProductID:  productID,
		OccurredAt: f.clock.Advance(time.Minute),
		Delta:      dec(delta),
		Cause:      cause,
		RecordedBy: "caja-1",
	}
	require.NoError(f.t, f.svc.HandleMovement(f.ctx, ev))
	return ev
}

func (f *fixture) stock(productID string) decimal.Decimal {
	f.t.Helper()
	qty, err := f.store.Stores().Stock.GetQuantity(f.ctx, productID)
	require.NoError(f.t, err)
	return qty
}

func (f *fixture) session(id string) *entity.InventorySession {
	f.t.Helper()
	s, err := f.store.Stores().Sessions.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, s)
	return s
}

func (f *fixture) line(sessionID, productID string) *entity.SessionLine {
	f.t.Helper()
	l, err := f.store.Stores().Lines.Get(f.ctx, sessionID, productID)
	require.NoError(f.t, err)
	require.NotNil(f.t, l)
	return l
}

func (f *fixture) active(sessionID, productID string) *entity.PendingAdjustment {
	f.t.Helper()
	adj, err := f.store.Stores().Adjustments.GetActive(f.ctx, sessionID, productID)
	require.NoError(f.t, err)
	return adj
}

// nonTerminal ajustes Pendiente/Aprobado del par (sesión, producto).
func (f *fixture) nonTerminal(sessionID, productID string) int {
	f.t.Helper()
	list, err := f.svc.ListPendingAdjustments(f.ctx, sessionID, productID)
	require.NoError(f.t, err)
	n := 0
	for _, adj := range list {
		if !adj.Status.IsTerminal() {
			n++
		}
	}
	return n
}

func (f *fixture) approveAll(sessionID string) {
	f.t.Helper()
	list, err := f.svc.ListPendingAdjustments(f.ctx, sessionID, "")
	require.NoError(f.t, err)
	for _, adj := range list {
		if adj.Status == entity.AdjustmentStatusPendiente {
			_, err := f.svc.ApproveAdjustment(f.ctx, adj.ID, adminID)
			require.NoError(f.t, err)
		}
	}
}

func (f *fixture) readAll(sessionID string, users ...string) {
	f.t.Helper()
	for _, u := range users {
		_, err := f.svc.MarkAllAlertsRead(f.ctx, sessionID, u)
		require.NoError(f.t, err)
	}
}

func (f *fixture) alerts(sessionID string) []physicalcount.AlertView {
	f.t.Helper()
	views, err := f.svc.ListAlerts(f.ctx, sessionID, adminID, false)
	require.NoError(f.t, err)
	return views
}
