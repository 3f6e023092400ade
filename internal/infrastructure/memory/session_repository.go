package memory

import (
	"context"
	"sort"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var (
	_ repository.InventorySessionRepository = (*SessionRepo)(nil)
	_ repository.AssignmentRepository       = (*AssignmentRepo)(nil)
)

// SessionRepo sesiones en memoria.
type SessionRepo struct {
	v view
}

func (r *SessionRepo) Create(_ context.Context, session *entity.InventorySession) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[session.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*entity.InventorySession, error) {
	var out *entity.InventorySession
	r.v.read(func(st *state) {
		if s, ok := st.sessions[id]; ok {
			out = &s
		}
	})
	return out, nil
}

// GetForUpdate equivale a GetByID: las transacciones en memoria ya están serializadas.
func (r *SessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventorySession, error) {
	return r.GetByID(ctx, id)
}

func (r *SessionRepo) Update(_ context.Context, session *entity.InventorySession) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[session.ID]; !ok {
			return domain.ErrSessionNotFound
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r *SessionRepo) List(_ context.Context, status entity.SessionStatus, limit, offset int) ([]*entity.InventorySession, error) {
	var list []*entity.InventorySession
	r.v.read(func(st *state) {
		for _, s := range st.sessions {
			if status != "" && s.Status != status {
				continue
			}
			s := s
			list = append(list, &s)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ScheduledDate.Equal(list[j].ScheduledDate) {
			return list[i].ScheduledDate.After(list[j].ScheduledDate)
		}
		return list[i].ID < list[j].ID
	})
	return paginate(list, limit, offset), nil
}

func (r *SessionRepo) ListOpenByProduct(_ context.Context, productID string) ([]*entity.InventorySession, error) {
	var list []*entity.InventorySession
	r.v.read(func(st *state) {
		for _, s := range st.sessions {
			if s.Status != entity.SessionStatusInProgress {
				continue
			}
			if _, ok := st.lines[pairKey{s.ID, productID}]; !ok {
				continue
			}
			s := s
			list = append(list, &s)
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// AssignmentRepo asignaciones en memoria.
type AssignmentRepo struct {
	v view
}

func (r *AssignmentRepo) Create(_ context.Context, a *entity.Assignment) error {
	return r.v.write(func(st *state) error {
		k := pairKey{a.SessionID, a.UserID}
		if _, ok := st.assignments[k]; ok {
			return domain.ErrDuplicateAssignment
		}
		st.assignments[k] = *a
		return nil
	})
}

func (r *AssignmentRepo) Delete(_ context.Context, sessionID, userID string) error {
	return r.v.write(func(st *state) error {
		k := pairKey{sessionID, userID}
		if _, ok := st.assignments[k]; !ok {
			return domain.ErrNotFound
		}
		delete(st.assignments, k)
		return nil
	})
}

func (r *AssignmentRepo) Exists(_ context.Context, sessionID, userID string) (bool, error) {
	var ok bool
	r.v.read(func(st *state) {
		_, ok = st.assignments[pairKey{sessionID, userID}]
	})
	return ok, nil
}

func (r *AssignmentRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.Assignment, error) {
	var list []*entity.Assignment
	r.v.read(func(st *state) {
		for k, a := range st.assignments {
			if k.a != sessionID {
				continue
			}
			a := a
			list = append(list, &a)
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].AssignedAt.Equal(list[j].AssignedAt) {
			return list[i].AssignedAt.Before(list[j].AssignedAt)
		}
		return list[i].UserID < list[j].UserID
	})
	return list, nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
