package physicalcount

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error
}

// SessionLocker serializa las operaciones mutantes de una misma sesión.
type SessionLocker interface {
	// Lock bloquea la sesión hasta llamar unlock o hasta que ctx se cancele.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
	// Release descarta el estado del candado cuando la sesión llega a un estado terminal.
	Release(sessionID string)
}

// MovementRequeuer encola movimientos cuya conciliación no pudo completarse.
type MovementRequeuer interface {
	EnqueueMovement(ctx context.Context, ev MovementEvent, reason string) error
}

// MovementSubscriber recibe cada movimiento de stock registrado en el sistema.
type MovementSubscriber interface {
	HandleMovement(ctx context.Context, ev MovementEvent) error
}
