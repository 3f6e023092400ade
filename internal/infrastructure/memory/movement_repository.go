package memory

import (
	"context"
	"time"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos en memoria.
type MovementRepo struct {
	v view
}

func (r *MovementRepo) Create(_ context.Context, movement *entity.InventoryMovement) (bool, error) {
	created := false
	err := r.v.write(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == movement.ID {
				movement.Seq = m.Seq
				return nil
			}
		}
		st.movementSeq++
		movement.Seq = st.movementSeq
		st.movements = append(st.movements, *movement)
		created = true
		return nil
	})
	return created, err
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	r.v.read(func(st *state) {
		for _, m := range st.movements {
			if m.ID == id {
				m := m
				out = &m
				return
			}
		}
	})
	return out, nil
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time) ([]entity.InventoryMovement, error) {
	var list []entity.InventoryMovement
	r.v.read(func(st *state) {
		for _, m := range st.movements {
			if m.ProductID != productID {
				continue
			}
			if from != nil && !m.OccurredAt.After(*from) {
				continue
			}
			if to != nil && m.OccurredAt.After(*to) {
				continue
			}
			list = append(list, m)
		}
	})
	inventory.SortMovements(list)
	return list, nil
}
