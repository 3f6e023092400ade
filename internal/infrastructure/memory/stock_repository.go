package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var (
	_ repository.StockRepository = (*StockRepo)(nil)
	_ repository.AuditRepository = (*AuditRepo)(nil)
)

// StockRepo libro de existencias en memoria.
type StockRepo struct {
	v view
}

func (r *StockRepo) Get(_ context.Context, productID string) (*entity.Stock, error) {
	var out entity.Stock
	r.v.read(func(st *state) {
		out = st.stock[productID]
	})
	out.ProductID = productID
	return &out, nil
}

func (r *StockRepo) GetQuantity(ctx context.Context, productID string) (decimal.Decimal, error) {
	s, err := r.Get(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Quantity, nil
}

func (r *StockRepo) ApplyDelta(_ context.Context, productID string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var old, updated decimal.Decimal
	err := r.v.write(func(st *state) error {
		cur := st.stock[productID]
		old = cur.Quantity
		updated = cur.Quantity.Add(delta)
		if updated.IsNegative() {
			return domain.ErrInsufficientStock
		}
		st.stock[productID] = entity.Stock{
			ProductID: productID,
			Quantity:  updated,
			Version:   cur.Version + 1,
			UpdatedAt: time.Now().UTC(),
		}
		return nil
	})
	return old, updated, err
}

// AuditRepo bitácora en memoria.
type AuditRepo struct {
	v view
}

func (r *AuditRepo) Create(_ context.Context, entry *entity.AuditEntry) error {
	return r.v.write(func(st *state) error {
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (r *AuditRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.AuditEntry, error) {
	var list []*entity.AuditEntry
	r.v.read(func(st *state) {
		for _, e := range st.audit {
			if e.SessionID != sessionID {
				continue
			}
			e := e
			list = append(list, &e)
		}
	})
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
