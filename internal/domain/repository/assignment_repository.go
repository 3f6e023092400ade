package repository

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// AssignmentRepository puerto de persistencia de asignaciones de contadores.
type AssignmentRepository interface {
	// Create devuelve domain.ErrDuplicateAssignment si el par ya existe.
	Create(ctx context.Context, a *entity.Assignment) error
	Delete(ctx context.Context, sessionID, userID string) error
	Exists(ctx context.Context, sessionID, userID string) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]*entity.Assignment, error)
}
