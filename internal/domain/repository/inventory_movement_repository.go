package repository

import (
	"context"
	"time"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// InventoryMovementRepository puerto del log de movimientos de inventario.
type InventoryMovementRepository interface {
	// Create registra el movimiento asignando Seq. Idempotente por ID: created=false si ya existía.
	Create(ctx context.Context, movement *entity.InventoryMovement) (created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// ListByProduct movimientos con from < OccurredAt <= to ordenados por (OccurredAt, Seq). Límites nil = abiertos.
	ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]entity.InventoryMovement, error)
}
