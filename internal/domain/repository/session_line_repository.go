package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// SessionLineRepository puerto de persistencia de líneas de sesión.
type SessionLineRepository interface {
	// CreateBatch inserta líneas ignorando productos ya presentes en la sesión.
	CreateBatch(ctx context.Context, lines []*entity.SessionLine) error
	Get(ctx context.Context, sessionID, productID string) (*entity.SessionLine, error)
	ListBySession(ctx context.Context, sessionID string) ([]*entity.SessionLine, error)
	// SetSnapshot escribe SystemQuantity una única vez; ErrConflict si ya se tomó.
	SetSnapshot(ctx context.Context, sessionID, productID string, qty decimal.Decimal, at time.Time) error
	// Update persiste conteo, deriva y observaciones con control de versión (nunca SystemQuantity).
	// Devuelve domain.ErrConflict si la versión cambió; en éxito incrementa line.Version.
	Update(ctx context.Context, line *entity.SessionLine) error
}
