// Package physicalcount motor de conteo físico de inventario: sesiones, conteos,
// ajustes pendientes, conciliación con movimientos posteriores al corte y aplicación al stock.
//
// Toda operación mutante sobre una sesión se serializa con SessionLocker y se ejecuta
// dentro de una única transacción de TxRunner.
package physicalcount

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// SystemActor actor registrado en la bitácora cuando el cambio lo origina el conciliador.
const SystemActor = "sistema"

// Deps dependencias del servicio.
type Deps struct {
	Tx       TxRunner
	Reader   repository.Stores // lecturas fuera de transacción
	Locker   SessionLocker     // opcional: por defecto KeyedLocker
	Requeuer MovementRequeuer  // opcional: sin él los fallos de conciliación solo se registran en log
	Logger   zerolog.Logger
	Config   Config
}

// Service casos de uso del conteo físico.
type Service struct {
	tx       TxRunner
	read     repository.Stores
	locker   SessionLocker
	requeuer MovementRequeuer
	log      zerolog.Logger
	cfg      Config
	now      func() time.Time
	inflight *applyRegistry
}

// NewService construye el servicio.
func NewService(d Deps) *Service {
	locker := d.Locker
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &Service{
		tx:       d.Tx,
		read:     d.Reader,
		locker:   locker,
		requeuer: d.Requeuer,
		log:      d.Logger.With().Str("component", "physicalcount").Logger(),
		cfg:      d.Config.normalized(),
		now:      func() time.Time { return time.Now().UTC() },
		inflight: newApplyRegistry(),
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SetRequeuer fija el reencolador después de construir el servicio
// (el worker de cola y el servicio se referencian mutuamente).
func (s *Service) SetRequeuer(r MovementRequeuer) {
	s.requeuer = r
}

// withSession serializa fn con el resto de operaciones mutantes de la sesión.
func (s *Service) withSession(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

// loadSession obtiene la sesión bloqueando su fila. ErrSessionNotFound si no existe.
func loadSession(ctx context.Context, st repository.Stores, sessionID string) (*entity.InventorySession, error) {
	session, err := st.Sessions.GetForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// loadActiveSession como loadSession pero exige EN_PROGRESO.
func loadActiveSession(ctx context.Context, st repository.Stores, sessionID string) (*entity.InventorySession, error) {
	session, err := loadSession(ctx, st, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionStatusInProgress {
		return nil, domain.ErrSessionNotActive
	}
	return session, nil
}

func (s *Service) audit(ctx context.Context, st repository.Stores, sessionID, productID, action, actorID, detail string) error {
	return st.Audit.Create(ctx, &entity.AuditEntry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ProductID: productID,
		Action:    action,
		ActorID:   actorID,
		Detail:    detail,
		CreatedAt: s.now(),
	})
}

// domainErrors errores de negocio: nunca se reintentan.
var domainErrors = []error{
	domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrUnauthorized,
	domain.ErrForbidden, domain.ErrInsufficientStock, domain.ErrSessionNotFound,
	domain.ErrSessionNotActive, domain.ErrInvalidQuantity, domain.ErrDuplicateAssignment,
	domain.ErrAdjustmentNotEditable, domain.ErrUnresolvedAlerts, domain.ErrUncountedLines,
	domain.ErrPendingAdjustments, domain.ErrNoAssignments, domain.ErrEmptySession,
	domain.ErrLineNotFound, domain.ErrApplyAborted,
}

// isTransient conflictos de versión y fallos de almacenamiento que vale la pena reintentar.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrLedgerConflict) {
		return true
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return false
		}
	}
	return true
}

// applyRegistry aplicaciones en curso por sesión; Cancel las aborta.
type applyRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc
}

func newApplyRegistry() *applyRegistry {
	return &applyRegistry{cancels: make(map[string]context.CancelCauseFunc)}
}

func (r *applyRegistry) begin(ctx context.Context, sessionID string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	r.mu.Lock()
	r.cancels[sessionID] = cancel
	r.mu.Unlock()
	return ctx, func() {
		r.mu.Lock()
		delete(r.cancels, sessionID)
		r.mu.Unlock()
		cancel(nil)
	}
}

func (r *applyRegistry) abort(sessionID string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[sessionID]
	r.mu.Unlock()
	if ok {
		cancel(domain.ErrApplyAborted)
	}
	return ok
}

// abortCause devuelve el motivo si ctx fue cancelado.
func abortCause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
