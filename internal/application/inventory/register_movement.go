package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
	"github.com/umonge0811/TucoAPP-sub003/pkg/retry"
)

// RegisterMovementUseCase registra ventas, compras y ajustes manuales de forma transaccional:
// actualiza el stock con compare-and-update, deja el movimiento en el registro y, tras el commit,
// lo publica al conciliador de sesiones de conteo abiertas.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	publisher MovementPublisher
	policy    retry.Policy
	log       zerolog.Logger
	now       func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. publisher puede ser nil.
func NewRegisterMovementUseCase(txRunner TxRunner, publisher MovementPublisher, policy retry.Policy, log zerolog.Logger) *RegisterMovementUseCase {
	if policy.MaxAttempts <= 0 {
		policy = retry.Policy{MaxAttempts: 3, BaseBackoff: 20 * time.Millisecond, MaxBackoff: 500 * time.Millisecond}
	}
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		publisher: publisher,
		policy:    policy,
		log:       log.With().Str("component", "inventory").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *RegisterMovementUseCase) WithClock(now func() time.Time) *RegisterMovementUseCase {
	uc.now = now
	return uc
}

// MovementInputDTO entrada para registrar un movimiento de inventario.
// VENTA y COMPRA llevan cantidad positiva; AJUSTE_MANUAL lleva la cantidad con signo.
// OccurredAt vacío toma la hora actual.
type MovementInputDTO struct {
	MovementID string
	UserID     string
	ProductID  string
	Cause      string
	Quantity   decimal.Decimal
	Reference  string
	OccurredAt time.Time
}

func signedDelta(cause string, qty decimal.Decimal) (decimal.Decimal, error) {
	switch cause {
	case entity.MovementCauseSale:
		if !inventory.IsWholePositive(qty) {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return qty.Neg(), nil
	case entity.MovementCausePurchase:
		if !inventory.IsWholePositive(qty) {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return qty, nil
	case entity.MovementCauseManualAdjust:
		if qty.IsZero() || !inventory.IsWholePositive(qty.Abs()) {
			return decimal.Zero, domain.ErrInvalidQuantity
		}
		return qty, nil
	}
	// AJUSTE_CONTEO solo lo genera el motor de conteo.
	return decimal.Zero, domain.ErrInvalidInput
}

// RegisterMovement aplica el movimiento al stock y lo registra en una sola transacción.
// Reintenta con backoff si otra escritura ganó la carrera sobre la fila de stock.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.InventoryMovement, error) {
	if input.ProductID == "" || input.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	delta, err := signedDelta(input.Cause, input.Quantity)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	occurredAt := input.OccurredAt.UTC()
	if input.OccurredAt.IsZero() {
		occurredAt = now
	}
	id := input.MovementID
	if id == "" {
		id = uuid.New().String()
	}
	movement := &entity.InventoryMovement{
		ID:         id,
		ProductID:  input.ProductID,
		OccurredAt: occurredAt,
		Delta:      delta,
		Cause:      input.Cause,
		Reference:  input.Reference,
		CreatedBy:  input.UserID,
		CreatedAt:  now,
	}

	retryable := func(err error) bool { return errors.Is(err, domain.ErrLedgerConflict) }
	err = retry.Do(ctx, uc.policy, retryable, func(ctx context.Context, _ int) error {
		return uc.txRunner.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			existing, err := st.Movements.GetByID(ctx, movement.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				// Reentrega del mismo movimiento: no se vuelve a tocar el stock.
				*movement = *existing
				return nil
			}
			if _, _, err := st.Stock.ApplyDelta(ctx, movement.ProductID, movement.Delta); err != nil {
				return err
			}
			_, err = st.Movements.Create(ctx, movement)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().Str("movement_id", movement.ID).Str("product_id", movement.ProductID).
		Str("cause", movement.Cause).Str("delta", movement.Delta.String()).Msg("movimiento registrado")
	if uc.publisher != nil {
		if err := uc.publisher.HandleMovement(ctx, physicalcount.EventFromMovement(movement)); err != nil {
			uc.log.Error().Err(err).Str("movement_id", movement.ID).Msg("no se pudo conciliar el movimiento")
		}
	}
	return movement, nil
}
