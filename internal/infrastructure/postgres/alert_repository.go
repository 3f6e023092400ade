package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, session_id, product_id, severity, message, delta, created_at, resolved_by, resolved_at`

// AlertRepo alertas de conteo y su lectura por usuario (inventory_count_alert_reads).
type AlertRepo struct {
	q Querier
}

func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var a entity.Alert
	err := row.Scan(&a.ID, &a.SessionID, &a.ProductID, &a.Severity, &a.Message, &a.Delta, &a.CreatedAt,
		&a.ResolvedBy, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) Create(ctx context.Context, a *entity.Alert) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_count_alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.SessionID, a.ProductID, a.Severity, a.Message, a.Delta, a.CreatedAt, a.ResolvedBy, a.ResolvedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert alert", err)
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM inventory_count_alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get alert", err)
	}
	return a, nil
}

// Update solo persiste la resolución; el resto de la alerta es inmutable.
func (r *AlertRepo) Update(ctx context.Context, a *entity.Alert) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_count_alerts SET resolved_by = $2, resolved_at = $3 WHERE id = $1`,
		a.ID, a.ResolvedBy, a.ResolvedAt)
	if err != nil {
		return wrapErr("update alert", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.Alert, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+alertColumns+`
		FROM inventory_count_alerts
		WHERE session_id = $1
		ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, wrapErr("list alerts", err)
	}
	defer rows.Close()
	var list []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, wrapErr("scan alert", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AlertRepo) MarkRead(ctx context.Context, alertID, userID string, at time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_count_alert_reads (alert_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (alert_id, user_id) DO NOTHING`, alertID, userID, at)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return wrapErr("mark alert read", err)
	}
	return nil
}

func (r *AlertRepo) ListReads(ctx context.Context, sessionID string) ([]entity.AlertRead, error) {
	rows, err := r.q.Query(ctx, `
		SELECT rd.alert_id, rd.user_id, rd.read_at
		FROM inventory_count_alert_reads rd
		JOIN inventory_count_alerts a ON a.id = rd.alert_id
		WHERE a.session_id = $1
		ORDER BY rd.read_at, rd.alert_id, rd.user_id`, sessionID)
	if err != nil {
		return nil, wrapErr("list alert reads", err)
	}
	defer rows.Close()
	var list []entity.AlertRead
	for rows.Next() {
		var rd entity.AlertRead
		if err := rows.Scan(&rd.AlertID, &rd.UserID, &rd.ReadAt); err != nil {
			return nil, wrapErr("scan alert read", err)
		}
		list = append(list, rd)
	}
	return list, rows.Err()
}
