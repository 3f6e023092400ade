package repository

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// AuditRepository bitácora de la sesión de conteo.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]*entity.AuditEntry, error)
}
