package memory

import (
	"context"
	"sort"
	"time"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas en memoria.
type AlertRepo struct {
	v view
}

func (r *AlertRepo) Create(_ context.Context, alert *entity.Alert) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.alerts[alert.ID]; ok {
			return domain.ErrDuplicate
		}
		st.alerts[alert.ID] = *alert
		return nil
	})
}

func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	var out *entity.Alert
	r.v.read(func(st *state) {
		if a, ok := st.alerts[id]; ok {
			out = &a
		}
	})
	return out, nil
}

func (r *AlertRepo) Update(_ context.Context, alert *entity.Alert) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.alerts[alert.ID]; !ok {
			return domain.ErrNotFound
		}
		st.alerts[alert.ID] = *alert
		return nil
	})
}

func (r *AlertRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.Alert, error) {
	var list []*entity.Alert
	r.v.read(func(st *state) {
		for _, a := range st.alerts {
			if a.SessionID != sessionID {
				continue
			}
			a := a
			list = append(list, &a)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *AlertRepo) MarkRead(_ context.Context, alertID, userID string, at time.Time) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.alerts[alertID]; !ok {
			return domain.ErrNotFound
		}
		k := pairKey{alertID, userID}
		if _, ok := st.reads[k]; ok {
			return nil
		}
		st.reads[k] = entity.AlertRead{AlertID: alertID, UserID: userID, ReadAt: at}
		return nil
	})
}

func (r *AlertRepo) ListReads(_ context.Context, sessionID string) ([]entity.AlertRead, error) {
	var list []entity.AlertRead
	r.v.read(func(st *state) {
		for k, rd := range st.reads {
			if a, ok := st.alerts[k.a]; ok && a.SessionID == sessionID {
				list = append(list, rd)
			}
		}
	})
	return list, nil
}
