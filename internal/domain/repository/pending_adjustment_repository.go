package repository

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// PendingAdjustmentRepository puerto de persistencia de ajustes pendientes.
type PendingAdjustmentRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe un ajuste no terminal para el par.
	Create(ctx context.Context, adj *entity.PendingAdjustment) error
	GetByID(ctx context.Context, id string) (*entity.PendingAdjustment, error)
	// GetActive ajuste no terminal (Pendiente o Aprobado) del par, o nil.
	GetActive(ctx context.Context, sessionID, productID string) (*entity.PendingAdjustment, error)
	Update(ctx context.Context, adj *entity.PendingAdjustment) error
	Delete(ctx context.Context, id string) error
	// ListBySession ordenado por producto y fecha de creación. productID vacío = todos.
	ListBySession(ctx context.Context, sessionID, productID string) ([]*entity.PendingAdjustment, error)
	ListByStatus(ctx context.Context, sessionID string, status entity.AdjustmentStatus) ([]*entity.PendingAdjustment, error)
}
