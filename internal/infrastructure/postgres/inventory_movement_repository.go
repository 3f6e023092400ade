package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, seq, product_id, occurred_at, delta, cause, reference, created_by, created_at`

// InventoryMovementRepo log de movimientos sobre PostgreSQL (usable con pool o tx).
// seq es BIGSERIAL y desempata movimientos con el mismo occurred_at.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	err := row.Scan(&m.ID, &m.Seq, &m.ProductID, &m.OccurredAt, &m.Delta, &m.Cause, &m.Reference,
		&m.CreatedBy, &m.CreatedAt)
	return m, err
}

// Create persiste el movimiento. Un ID repetido no falla: devuelve created=false y el Seq original.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) (bool, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_movements (id, product_id, occurred_at, delta, cause, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING seq`,
		m.ID, m.ProductID, m.OccurredAt, m.Delta, m.Cause, m.Reference, m.CreatedBy, m.CreatedAt,
	).Scan(&m.Seq)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, wrapErr("create inventory movement", err)
	}
	if err := r.q.QueryRow(ctx, `SELECT seq FROM inventory_movements WHERE id = $1`, m.ID).Scan(&m.Seq); err != nil {
		return false, wrapErr("get movement seq", err)
	}
	return false, nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get inventory movement", err)
	}
	return &m, nil
}

func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+movementColumns+`
		FROM inventory_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR occurred_at > $2)
		  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		ORDER BY occurred_at, seq`, productID, from, to)
	if err != nil {
		return nil, wrapErr("list inventory movements", err)
	}
	defer rows.Close()
	var list []entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, wrapErr("scan inventory movement", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
