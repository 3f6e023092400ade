package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/dto"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorMapping traduce errores de dominio a status HTTP y código estable.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrSessionNotFound, fiber.StatusNotFound, "SESSION_NOT_FOUND"},
	{domain.ErrLineNotFound, fiber.StatusNotFound, "LINE_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrDuplicateAssignment, fiber.StatusConflict, "DUPLICATE_ASSIGNMENT"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrSessionNotActive, fiber.StatusConflict, "SESSION_NOT_ACTIVE"},
	{domain.ErrAdjustmentNotEditable, fiber.StatusConflict, "ADJUSTMENT_NOT_EDITABLE"},
	{domain.ErrUncountedLines, fiber.StatusConflict, "UNCOUNTED_LINES"},
	{domain.ErrUnresolvedAlerts, fiber.StatusConflict, "UNRESOLVED_ALERTS"},
	{domain.ErrPendingAdjustments, fiber.StatusConflict, "PENDING_ADJUSTMENTS"},
	{domain.ErrNoAssignments, fiber.StatusConflict, "NO_ASSIGNMENTS"},
	{domain.ErrEmptySession, fiber.StatusConflict, "EMPTY_SESSION"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrApplyAborted, fiber.StatusConflict, "APPLY_ABORTED"},
	{domain.ErrLedgerConflict, fiber.StatusConflict, "LEDGER_CONFLICT"},
	{domain.ErrMovementOutOfOrder, fiber.StatusConflict, "MOVEMENT_OUT_OF_ORDER"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(dto.OK(data, message))
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.Fail(code, message))
}

// failErr responde con el status del error de dominio; los errores no mapeados se registran y devuelven 500.
func failErr(c *fiber.Ctx, log zerolog.Logger, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return fail(c, m.status, m.code, err.Error())
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "error interno")
}

// bind parsea el body y aplica las reglas validate de la DTO.
// Si devuelve false la respuesta 400 ya está escrita y el handler debe retornar err.
func bind(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(out); err != nil {
		return false, fail(c, fiber.StatusBadRequest, "VALIDATION", validationMessage(err))
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "datos inválidos"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return "datos inválidos (" + strings.Join(parts, ", ") + ")"
}
