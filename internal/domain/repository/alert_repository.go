package repository

import (
	"context"
	"time"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// AlertRepository puerto de persistencia de alertas y su estado de lectura por usuario.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	Update(ctx context.Context, alert *entity.Alert) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.Alert, error)
	// MarkRead es idempotente: conserva la primera fecha de lectura.
	MarkRead(ctx context.Context, alertID, userID string, at time.Time) error
	ListReads(ctx context.Context, sessionID string) ([]entity.AlertRead, error)
}
