// Package memory implementa los puertos del motor de conteo en memoria.
// Las transacciones trabajan sobre una copia del estado que se publica en el commit,
// lo que da atomicidad todo-o-nada igual que PostgreSQL. Se usa en desarrollo y en tests.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ physicalcount.TxRunner = (*Store)(nil)

type pairKey struct {
	a, b string
}

type state struct {
	sessions    map[string]entity.InventorySession
	lines       map[pairKey]entity.SessionLine // (session, product)
	assignments map[pairKey]entity.Assignment  // (session, user)
	adjustments map[string]entity.PendingAdjustment
	movements   []entity.InventoryMovement
	movementSeq int64
	alerts      map[string]entity.Alert
	reads       map[pairKey]entity.AlertRead // (alert, user)
	stock       map[string]entity.Stock
	audit       []entity.AuditEntry
}

func newState() *state {
	return &state{
		sessions:    map[string]entity.InventorySession{},
		lines:       map[pairKey]entity.SessionLine{},
		assignments: map[pairKey]entity.Assignment{},
		adjustments: map[string]entity.PendingAdjustment{},
		alerts:      map[string]entity.Alert{},
		reads:       map[pairKey]entity.AlertRead{},
		stock:       map[string]entity.Stock{},
	}
}

func (s *state) clone() *state {
	c := &state{
		sessions:    make(map[string]entity.InventorySession, len(s.sessions)),
		lines:       make(map[pairKey]entity.SessionLine, len(s.lines)),
		assignments: make(map[pairKey]entity.Assignment, len(s.assignments)),
		adjustments: make(map[string]entity.PendingAdjustment, len(s.adjustments)),
		movements:   append([]entity.InventoryMovement(nil), s.movements...),
		movementSeq: s.movementSeq,
		alerts:      make(map[string]entity.Alert, len(s.alerts)),
		reads:       make(map[pairKey]entity.AlertRead, len(s.reads)),
		stock:       make(map[string]entity.Stock, len(s.stock)),
		audit:       append([]entity.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = v
	}
	for k, v := range s.alerts {
		c.alerts[k] = v
	}
	for k, v := range s.reads {
		c.reads[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

// Store estado en memoria con semántica transaccional.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// view da acceso al estado: en vivo (con candados del Store) o sobre la copia de una transacción.
type view struct {
	store *Store
	tx    *state
}

func (v view) read(fn func(st *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	fn(v.store.st)
}

func (v view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v view) stores() repository.Stores {
	return repository.Stores{
		Sessions:    &SessionRepo{v: v},
		Lines:       &LineRepo{v: v},
		Assignments: &AssignmentRepo{v: v},
		Adjustments: &AdjustmentRepo{v: v},
		Movements:   &MovementRepo{v: v},
		Alerts:      &AlertRepo{v: v},
		Stock:       &StockRepo{v: v},
		Audit:       &AuditRepo{v: v},
	}
}

// Stores repositorios sobre el estado vivo (lecturas y escrituras fuera de transacción).
func (s *Store) Stores() repository.Stores {
	return view{store: s}.stores()
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn termina sin error.
// Las transacciones se serializan entre sí.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(ctx, view{store: s, tx: work}.stores()); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

// SeedStock fija el stock de un producto (útil en desarrollo y tests).
func (s *Store) SeedStock(productID string, qty decimal.Decimal) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.st.stock[productID]
	s.st.stock[productID] = entity.Stock{
		ProductID: productID,
		Quantity:  qty,
		Version:   cur.Version + 1,
	}
}
