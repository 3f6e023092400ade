package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/dto"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de movimientos de inventario (protegido).
type InventoryHandler struct {
	uc  *inventory.RegisterMovementUseCase
	log zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.RegisterMovementUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log.With().Str("component", "http.inventory").Logger()}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  VENTA y COMPRA con cantidad positiva; AJUSTE_MANUAL con cantidad con signo.
// @Description  El movimiento se concilia contra las sesiones de conteo abiertas del producto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, cause, quantity"
// @Success      201   {object}  dto.APIResponse
// @Failure      400   {object}  dto.APIResponse
// @Failure      409   {object}  dto.APIResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
	}
	var in dto.RegisterMovementRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	m, err := h.uc.RegisterMovementFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToMovementResponse(m), "movimiento registrado")
}
