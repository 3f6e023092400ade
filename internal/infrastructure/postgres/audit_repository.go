package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora de conteo; seq conserva el orden de inserción dentro del mismo instante.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_count_audit (id, session_id, product_id, action, actor_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, e.ProductID, e.Action, e.ActorID, e.Detail, e.CreatedAt)
	if err != nil {
		return wrapErr("insert audit entry", err)
	}
	return nil
}

func (r *AuditRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.AuditEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, product_id, action, actor_id, detail, created_at
		FROM inventory_count_audit
		WHERE session_id = $1
		ORDER BY created_at, seq`, sessionID)
	if err != nil {
		return nil, wrapErr("list audit entries", err)
	}
	defer rows.Close()
	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ProductID, &e.Action, &e.ActorID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, wrapErr("scan audit entry", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
