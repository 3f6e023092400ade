package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

var (
	_ physicalcount.TxRunner = (*TxRunner)(nil)
	_ inventory.TxRunner     = (*TxRunner)(nil)
)

// NewStores construye los repositorios del motor de conteo atados a q (pool o tx).
func NewStores(q Querier) repository.Stores {
	return repository.Stores{
		Sessions:    NewSessionRepository(q),
		Lines:       NewLineRepository(q),
		Assignments: NewAssignmentRepository(q),
		Adjustments: NewAdjustmentRepository(q),
		Movements:   NewInventoryMovementRepository(q),
		Alerts:      NewAlertRepository(q),
		Stock:       NewStockRepository(q),
		Audit:       NewAuditRepository(q),
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La exclusión entre escrituras la dan SELECT ... FOR UPDATE y las columnas version.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewStores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
