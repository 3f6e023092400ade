package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// StockRepository puerto del libro de existencias (recurso compartido entre sesiones).
type StockRepository interface {
	// Get devuelve el stock del producto; si no existe la fila devuelve cantidad cero y versión 0.
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	GetQuantity(ctx context.Context, productID string) (decimal.Decimal, error)
	// ApplyDelta hace compare-and-update contra la versión vigente de la fila.
	// domain.ErrLedgerConflict si otra escritura ganó; domain.ErrInsufficientStock si el resultado es negativo.
	ApplyDelta(ctx context.Context, productID string, delta decimal.Decimal) (old, updated decimal.Decimal, err error)
}
