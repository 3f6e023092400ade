package inventory

import (
	"context"

	"github.com/umonge0811/TucoAPP-sub003/internal/application/dto"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*entity.InventoryMovement, error) {
	input := MovementInputDTO{
		MovementID: in.MovementID,
		UserID:     userID,
		ProductID:  in.ProductID,
		Cause:      in.Cause,
		Quantity:   in.Quantity,
		Reference:  in.Reference,
	}
	if in.OccurredAt != nil {
		input.OccurredAt = *in.OccurredAt
	}
	return uc.RegisterMovement(ctx, input)
}
