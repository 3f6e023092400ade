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

var _ repository.SessionLineRepository = (*LineRepo)(nil)

// LineRepo líneas de sesión en memoria.
type LineRepo struct {
	v view
}

func (r *LineRepo) CreateBatch(_ context.Context, lines []*entity.SessionLine) error {
	return r.v.write(func(st *state) error {
		for _, l := range lines {
			k := pairKey{l.SessionID, l.ProductID}
			if _, ok := st.lines[k]; ok {
				continue
			}
			st.lines[k] = *l
		}
		return nil
	})
}

func (r *LineRepo) Get(_ context.Context, sessionID, productID string) (*entity.SessionLine, error) {
	var out *entity.SessionLine
	r.v.read(func(st *state) {
		if l, ok := st.lines[pairKey{sessionID, productID}]; ok {
			out = &l
		}
	})
	return out, nil
}

func (r *LineRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.SessionLine, error) {
	var list []*entity.SessionLine
	r.v.read(func(st *state) {
		for k, l := range st.lines {
			if k.a != sessionID {
				continue
			}
			l := l
			list = append(list, &l)
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r *LineRepo) SetSnapshot(_ context.Context, sessionID, productID string, qty decimal.Decimal, at time.Time) error {
	return r.v.write(func(st *state) error {
		k := pairKey{sessionID, productID}
		l, ok := st.lines[k]
		if !ok {
			return domain.ErrLineNotFound
		}
		if l.SnapshotAt != nil {
			return domain.ErrConflict
		}
		l.SystemQuantity = qty
		l.SnapshotAt = &at
		l.Version++
		l.LastModifiedAt = at
		st.lines[k] = l
		return nil
	})
}

func (r *LineRepo) Update(_ context.Context, line *entity.SessionLine) error {
	return r.v.write(func(st *state) error {
		k := pairKey{line.SessionID, line.ProductID}
		cur, ok := st.lines[k]
		if !ok {
			return domain.ErrLineNotFound
		}
		if cur.Version != line.Version {
			return domain.ErrConflict
		}
		next := *line
		// el snapshot no se toca desde Update
		next.SystemQuantity = cur.SystemQuantity
		next.SnapshotAt = cur.SnapshotAt
		next.Version = cur.Version + 1
		st.lines[k] = next
		line.Version = next.Version
		return nil
	})
}
