package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo libro de existencias sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func (r *StockRepo) load(ctx context.Context, productID string) (*entity.Stock, bool, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, `
		SELECT product_id, quantity, version, updated_at
		FROM inventory_stock WHERE product_id = $1`, productID,
	).Scan(&s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, Quantity: decimal.Zero}, false, nil
		}
		return nil, false, wrapErr("get stock", err)
	}
	return &s, true, nil
}

// Get obtiene el stock actual; un producto sin fila tiene cantidad cero y versión 0.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.Stock, error) {
	s, _, err := r.load(ctx, productID)
	return s, err
}

func (r *StockRepo) GetQuantity(ctx context.Context, productID string) (decimal.Decimal, error) {
	s, _, err := r.load(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Quantity, nil
}

// ApplyDelta compare-and-update sobre version. Si otra transacción escribió la fila
// entre la lectura y el UPDATE no se afecta ninguna fila y se devuelve ErrLedgerConflict.
func (r *StockRepo) ApplyDelta(ctx context.Context, productID string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	cur, exists, err := r.load(ctx, productID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	old := cur.Quantity
	updated := old.Add(delta)
	if updated.IsNegative() {
		return old, updated, domain.ErrInsufficientStock
	}
	now := time.Now().UTC()

	if !exists {
		tag, err := r.q.Exec(ctx, `
			INSERT INTO inventory_stock (product_id, quantity, version, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (product_id) DO NOTHING`, productID, updated, now)
		if err != nil {
			return old, updated, wrapErr("insert stock", err)
		}
		if tag.RowsAffected() == 0 {
			return old, updated, domain.ErrLedgerConflict
		}
		return old, updated, nil
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_stock
		SET quantity = $2, version = version + 1, updated_at = $3
		WHERE product_id = $1 AND version = $4`, productID, updated, now, cur.Version)
	if err != nil {
		return old, updated, wrapErr("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return old, updated, domain.ErrLedgerConflict
	}
	return old, updated, nil
}
