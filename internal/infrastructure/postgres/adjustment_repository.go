package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.PendingAdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, session_id, product_id, type, quantity, reason, status, created_by, created_at,
	last_updated_by, last_updated_at, approved_by, approved_at, applied_at`

// AdjustmentRepo ajustes pendientes. El índice único parcial ux_count_adjustments_active
// garantiza un solo ajuste Pendiente o Aprobado por (session_id, product_id).
type AdjustmentRepo struct {
	q Querier
}

func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

func scanAdjustment(row pgx.Row) (*entity.PendingAdjustment, error) {
	var a entity.PendingAdjustment
	err := row.Scan(&a.ID, &a.SessionID, &a.ProductID, &a.Type, &a.Quantity, &a.Reason, &a.Status,
		&a.CreatedBy, &a.CreatedAt, &a.LastUpdatedBy, &a.LastUpdatedAt, &a.ApprovedBy, &a.ApprovedAt, &a.AppliedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.PendingAdjustment) error {
	query := `
		INSERT INTO inventory_count_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query, a.ID, a.SessionID, a.ProductID, a.Type, a.Quantity, a.Reason, a.Status,
		a.CreatedBy, a.CreatedAt, a.LastUpdatedBy, a.LastUpdatedAt, a.ApprovedBy, a.ApprovedAt, a.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert adjustment", err)
	}
	return nil
}

func (r *AdjustmentRepo) one(ctx context.Context, query string, args ...any) (*entity.PendingAdjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get adjustment", err)
	}
	return a, nil
}

func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.PendingAdjustment, error) {
	return r.one(ctx, `SELECT `+adjustmentColumns+` FROM inventory_count_adjustments WHERE id = $1`, id)
}

func (r *AdjustmentRepo) GetActive(ctx context.Context, sessionID, productID string) (*entity.PendingAdjustment, error) {
	return r.one(ctx, `
		SELECT `+adjustmentColumns+`
		FROM inventory_count_adjustments
		WHERE session_id = $1 AND product_id = $2 AND status IN ('Pendiente', 'Aprobado')`,
		sessionID, productID)
}

func (r *AdjustmentRepo) Update(ctx context.Context, a *entity.PendingAdjustment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_count_adjustments
		SET type = $2, quantity = $3, reason = $4, status = $5, last_updated_by = $6, last_updated_at = $7,
		    approved_by = $8, approved_at = $9, applied_at = $10
		WHERE id = $1`,
		a.ID, a.Type, a.Quantity, a.Reason, a.Status, a.LastUpdatedBy, a.LastUpdatedAt,
		a.ApprovedBy, a.ApprovedAt, a.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("update adjustment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AdjustmentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_count_adjustments WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete adjustment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AdjustmentRepo) ListBySession(ctx context.Context, sessionID, productID string) ([]*entity.PendingAdjustment, error) {
	return r.list(ctx, `
		SELECT `+adjustmentColumns+`
		FROM inventory_count_adjustments
		WHERE session_id = $1 AND ($2 = '' OR product_id = $2)
		ORDER BY product_id, created_at, id`, sessionID, productID)
}

func (r *AdjustmentRepo) ListByStatus(ctx context.Context, sessionID string, status entity.AdjustmentStatus) ([]*entity.PendingAdjustment, error) {
	return r.list(ctx, `
		SELECT `+adjustmentColumns+`
		FROM inventory_count_adjustments
		WHERE session_id = $1 AND status = $2
		ORDER BY product_id, created_at, id`, sessionID, status)
}

func (r *AdjustmentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.PendingAdjustment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list adjustments", err)
	}
	defer rows.Close()
	var list []*entity.PendingAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, wrapErr("scan adjustment", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
