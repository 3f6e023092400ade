package memory

import (
	"context"
	"sort"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.PendingAdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo ajustes pendientes en memoria.
type AdjustmentRepo struct {
	v view
}

func activeIn(st *state, sessionID, productID string) (entity.PendingAdjustment, bool) {
	for _, a := range st.adjustments {
		if a.SessionID == sessionID && a.ProductID == productID && !a.Status.IsTerminal() {
			return a, true
		}
	}
	return entity.PendingAdjustment{}, false
}

func (r *AdjustmentRepo) Create(_ context.Context, adj *entity.PendingAdjustment) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.adjustments[adj.ID]; ok {
			return domain.ErrDuplicate
		}
		if !adj.Status.IsTerminal() {
			if _, ok := activeIn(st, adj.SessionID, adj.ProductID); ok {
				return domain.ErrDuplicate
			}
		}
		st.adjustments[adj.ID] = *adj
		return nil
	})
}

func (r *AdjustmentRepo) GetByID(_ context.Context, id string) (*entity.PendingAdjustment, error) {
	var out *entity.PendingAdjustment
	r.v.read(func(st *state) {
		if a, ok := st.adjustments[id]; ok {
			out = &a
		}
	})
	return out, nil
}

func (r *AdjustmentRepo) GetActive(_ context.Context, sessionID, productID string) (*entity.PendingAdjustment, error) {
	var out *entity.PendingAdjustment
	r.v.read(func(st *state) {
		if a, ok := activeIn(st, sessionID, productID); ok {
			out = &a
		}
	})
	return out, nil
}

func (r *AdjustmentRepo) Update(_ context.Context, adj *entity.PendingAdjustment) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.adjustments[adj.ID]; !ok {
			return domain.ErrNotFound
		}
		if !adj.Status.IsTerminal() {
			if other, ok := activeIn(st, adj.SessionID, adj.ProductID); ok && other.ID != adj.ID {
				return domain.ErrDuplicate
			}
		}
		st.adjustments[adj.ID] = *adj
		return nil
	})
}

func (r *AdjustmentRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.adjustments[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.adjustments, id)
		return nil
	})
}

func (r *AdjustmentRepo) ListBySession(_ context.Context, sessionID, productID string) ([]*entity.PendingAdjustment, error) {
	var list []*entity.PendingAdjustment
	r.v.read(func(st *state) {
		for _, a := range st.adjustments {
			if a.SessionID != sessionID || (productID != "" && a.ProductID != productID) {
				continue
			}
			a := a
			list = append(list, &a)
		}
	})
	sortAdjustments(list)
	return list, nil
}

func (r *AdjustmentRepo) ListByStatus(_ context.Context, sessionID string, status entity.AdjustmentStatus) ([]*entity.PendingAdjustment, error) {
	var list []*entity.PendingAdjustment
	r.v.read(func(st *state) {
		for _, a := range st.adjustments {
			if a.SessionID != sessionID || a.Status != status {
				continue
			}
			a := a
			list = append(list, &a)
		}
	})
	sortAdjustments(list)
	return list, nil
}

func sortAdjustments(list []*entity.PendingAdjustment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProductID != list[j].ProductID {
			return list[i].ProductID < list[j].ProductID
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
