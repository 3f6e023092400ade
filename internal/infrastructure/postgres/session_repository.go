package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.InventorySessionRepository = (*SessionRepo)(nil)

const sessionColumns = `id, title, scheduled_date, status, created_by, created_at, started_at, completed_at, cancelled_at, updated_at`

// SessionRepo sesiones de conteo sobre PostgreSQL (usable con pool o tx).
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador de sesiones. Pasar pool o tx (Querier).
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

func scanSession(row pgx.Row) (*entity.InventorySession, error) {
	var s entity.InventorySession
	err := row.Scan(&s.ID, &s.Title, &s.ScheduledDate, &s.Status, &s.CreatedBy, &s.CreatedAt,
		&s.StartedAt, &s.CompletedAt, &s.CancelledAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *entity.InventorySession) error {
	query := `
		INSERT INTO inventory_count_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, s.ID, s.Title, s.ScheduledDate, s.Status, s.CreatedBy, s.CreatedAt,
		s.StartedAt, s.CompletedAt, s.CancelledAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert count session", err)
	}
	return nil
}

func (r *SessionRepo) get(ctx context.Context, id, suffix string) (*entity.InventorySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM inventory_count_sessions WHERE id = $1` + suffix
	s, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get count session", err)
	}
	return s, nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.InventorySession, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate toma el row lock de la sesión hasta el fin de la transacción.
func (r *SessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventorySession, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *SessionRepo) Update(ctx context.Context, s *entity.InventorySession) error {
	query := `
		UPDATE inventory_count_sessions
		SET title = $2, scheduled_date = $3, status = $4, started_at = $5, completed_at = $6,
		    cancelled_at = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.Title, s.ScheduledDate, s.Status, s.StartedAt,
		s.CompletedAt, s.CancelledAt, s.UpdatedAt)
	if err != nil {
		return wrapErr("update count session", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) List(ctx context.Context, status entity.SessionStatus, limit, offset int) ([]*entity.InventorySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM inventory_count_sessions
		WHERE ($1 = '' OR status = $1)
		ORDER BY scheduled_date DESC, id
		LIMIT $2 OFFSET $3`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return r.list(ctx, query, string(status), limit, offset)
}

func (r *SessionRepo) ListOpenByProduct(ctx context.Context, productID string) ([]*entity.InventorySession, error) {
	query := `
		SELECT s.id, s.title, s.scheduled_date, s.status, s.created_by, s.created_at,
		       s.started_at, s.completed_at, s.cancelled_at, s.updated_at
		FROM inventory_count_sessions s
		JOIN inventory_count_lines l ON l.session_id = s.id
		WHERE s.status = $1 AND l.product_id = $2
		ORDER BY s.id`
	return r.list(ctx, query, entity.SessionStatusInProgress, productID)
}

func (r *SessionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventorySession, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list count sessions", err)
	}
	defer rows.Close()
	var list []*entity.InventorySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, wrapErr("scan count session", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
