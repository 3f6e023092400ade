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

var _ repository.SessionLineRepository = (*LineRepo)(nil)

const lineColumns = `session_id, product_id, system_quantity, snapshot_at, counted_quantity, counting_user_id,
	observations, counted_at, expected_at_count, drift, last_movement_at, version, last_modified_at`

// LineRepo líneas de sesión. system_quantity queda protegido por un trigger una vez tomado el snapshot.
type LineRepo struct {
	q Querier
}

func NewLineRepository(q Querier) *LineRepo {
	return &LineRepo{q: q}
}

func scanLine(row pgx.Row) (*entity.SessionLine, error) {
	var (
		l       entity.SessionLine
		counted decimal.NullDecimal
	)
	err := row.Scan(&l.SessionID, &l.ProductID, &l.SystemQuantity, &l.SnapshotAt, &counted, &l.CountingUserID,
		&l.Observations, &l.CountedAt, &l.ExpectedAtCount, &l.Drift, &l.LastMovementAt, &l.Version, &l.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	if counted.Valid {
		q := counted.Decimal
		l.CountedQuantity = &q
	}
	return &l, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// CreateBatch inserta las líneas; ON CONFLICT ignora productos ya presentes.
func (r *LineRepo) CreateBatch(ctx context.Context, lines []*entity.SessionLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO inventory_count_lines (session_id, product_id, system_quantity, drift, version, last_modified_at)
			VALUES ($1, $2, 0, 0, 0, $3)
			ON CONFLICT (session_id, product_id) DO NOTHING`,
			l.SessionID, l.ProductID, l.LastModifiedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrSessionNotFound
			}
			return wrapErr("insert session line", err)
		}
	}
	return nil
}

func (r *LineRepo) Get(ctx context.Context, sessionID, productID string) (*entity.SessionLine, error) {
	query := `SELECT ` + lineColumns + ` FROM inventory_count_lines WHERE session_id = $1 AND product_id = $2`
	l, err := scanLine(r.q.QueryRow(ctx, query, sessionID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get session line", err)
	}
	return l, nil
}

func (r *LineRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.SessionLine, error) {
	query := `SELECT ` + lineColumns + ` FROM inventory_count_lines WHERE session_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, wrapErr("list session lines", err)
	}
	defer rows.Close()
	var list []*entity.SessionLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, wrapErr("scan session line", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *LineRepo) SetSnapshot(ctx context.Context, sessionID, productID string, qty decimal.Decimal, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_count_lines
		SET system_quantity = $3, snapshot_at = $4, version = version + 1, last_modified_at = $4
		WHERE session_id = $1 AND product_id = $2 AND snapshot_at IS NULL`,
		sessionID, productID, qty, at)
	if err != nil {
		return wrapErr("set line snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.Get(ctx, sessionID, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrLineNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *LineRepo) Update(ctx context.Context, l *entity.SessionLine) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_count_lines
		SET counted_quantity = $3, counting_user_id = $4, observations = $5, counted_at = $6,
		    drift = $7, last_movement_at = $8, last_modified_at = $9, expected_at_count = $11,
		    version = version + 1
		WHERE session_id = $1 AND product_id = $2 AND version = $10`,
		l.SessionID, l.ProductID, nullDecimal(l.CountedQuantity), l.CountingUserID, l.Observations,
		l.CountedAt, l.Drift, l.LastMovementAt, l.LastModifiedAt, l.Version, l.ExpectedAtCount)
	if err != nil {
		return wrapErr("update session line", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.Get(ctx, l.SessionID, l.ProductID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrLineNotFound
		}
		return domain.ErrConflict
	}
	l.Version++
	return nil
}
