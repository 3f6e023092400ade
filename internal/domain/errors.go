package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// Errores del motor de conteo físico y conciliación.
var (
	ErrSessionNotFound       = errors.New("sesión de inventario no encontrada")
	ErrSessionNotActive      = errors.New("la sesión no está en un estado válido para la operación")
	ErrInvalidQuantity       = errors.New("la cantidad debe ser un entero mayor a cero")
	ErrDuplicateAssignment   = errors.New("el usuario ya está asignado a la sesión")
	ErrAdjustmentNotEditable = errors.New("el ajuste ya fue aplicado o rechazado")
	ErrLedgerConflict        = errors.New("conflicto concurrente al actualizar el stock")
	ErrUnresolvedAlerts      = errors.New("existen alertas sin atender en la sesión")
	ErrMovementOutOfOrder    = errors.New("movimiento anterior al último procesado")
	ErrUncountedLines        = errors.New("existen productos sin conteo")
	ErrPendingAdjustments    = errors.New("existen ajustes pendientes sin aprobar o rechazar")
	ErrNoAssignments         = errors.New("la sesión no tiene contadores asignados")
	ErrEmptySession          = errors.New("la sesión no tiene productos")
	ErrLineNotFound          = errors.New("el producto no pertenece a la sesión")
	ErrApplyAborted          = errors.New("aplicación de ajustes abortada por cancelación")
)
