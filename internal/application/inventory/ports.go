package inventory

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad entre el libro de existencias y el registro de movimientos.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error
}

// MovementPublisher recibe los movimientos ya confirmados (el conciliador de conteos).
type MovementPublisher interface {
	HandleMovement(ctx context.Context, ev physicalcount.MovementEvent) error
}
