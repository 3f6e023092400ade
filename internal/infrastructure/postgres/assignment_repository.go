package postgres

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.AssignmentRepository = (*AssignmentRepo)(nil)

// AssignmentRepo asignaciones de contadores. PK (session_id, user_id).
type AssignmentRepo struct {
	q Querier
}

func NewAssignmentRepository(q Querier) *AssignmentRepo {
	return &AssignmentRepo{q: q}
}

func (r *AssignmentRepo) Create(ctx context.Context, a *entity.Assignment) error {
	query := `
		INSERT INTO inventory_count_assignments (session_id, user_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, a.SessionID, a.UserID, a.AssignedBy, a.AssignedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAssignment
		}
		if isForeignKeyViolation(err) {
			return domain.ErrSessionNotFound
		}
		return wrapErr("insert assignment", err)
	}
	return nil
}

func (r *AssignmentRepo) Delete(ctx context.Context, sessionID, userID string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM inventory_count_assignments WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return wrapErr("delete assignment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AssignmentRepo) Exists(ctx context.Context, sessionID, userID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory_count_assignments WHERE session_id = $1 AND user_id = $2)`,
		sessionID, userID).Scan(&ok)
	if err != nil {
		return false, wrapErr("exists assignment", err)
	}
	return ok, nil
}

func (r *AssignmentRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.Assignment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT session_id, user_id, assigned_by, assigned_at
		FROM inventory_count_assignments
		WHERE session_id = $1
		ORDER BY assigned_at, user_id`, sessionID)
	if err != nil {
		return nil, wrapErr("list assignments", err)
	}
	defer rows.Close()
	var list []*entity.Assignment
	for rows.Next() {
		var a entity.Assignment
		if err := rows.Scan(&a.SessionID, &a.UserID, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, wrapErr("scan assignment", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
