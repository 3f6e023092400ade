package repository

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// InventorySessionRepository puerto de persistencia de sesiones de conteo.
// Get* devuelven (nil, nil) cuando la sesión no existe.
type InventorySessionRepository interface {
	Create(ctx context.Context, session *entity.InventorySession) error
	GetByID(ctx context.Context, id string) (*entity.InventorySession, error)
	// GetForUpdate bloquea la fila de la sesión hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.InventorySession, error)
	Update(ctx context.Context, session *entity.InventorySession) error
	List(ctx context.Context, status entity.SessionStatus, limit, offset int) ([]*entity.InventorySession, error)
	// ListOpenByProduct sesiones EN_PROGRESO que contienen una línea para el producto.
	ListOpenByProduct(ctx context.Context, productID string) ([]*entity.InventorySession, error)
}
