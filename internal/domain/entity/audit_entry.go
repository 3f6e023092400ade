package entity

import "time"

// Acciones registradas en la bitácora de conteo.
const (
	AuditSessionScheduled   = "SESION_PROGRAMADA"
	AuditSessionStarted     = "SESION_INICIADA"
	AuditSessionCompleted   = "SESION_COMPLETADA"
	AuditSessionCancelled   = "SESION_CANCELADA"
	AuditCounterAssigned    = "CONTADOR_ASIGNADO"
	AuditCounterUnassigned  = "CONTADOR_DESASIGNADO"
	AuditCounterReassigned  = "CONTADOR_REASIGNADO"
	AuditCountCaptured      = "CONTEO_REGISTRADO"
	AuditAdjustmentUpserted = "AJUSTE_REGISTRADO"
	AuditAdjustmentDeleted  = "AJUSTE_ELIMINADO"
	AuditAdjustmentApproved = "AJUSTE_APROBADO"
	AuditAdjustmentRejected = "AJUSTE_RECHAZADO"
	AuditAdjustmentResumed  = "AJUSTE_REABIERTO"
	AuditAdjustmentApplied  = "AJUSTE_APLICADO"
	AuditMovementObserved   = "MOVIMIENTO_OBSERVADO"
	AuditMovementReconciled = "MOVIMIENTO_CONCILIADO"
	AuditProductsAdded      = "PRODUCTOS_AGREGADOS"
	AuditAlertRaised        = "ALERTA_GENERADA"
	AuditAlertResolved      = "ALERTA_RESUELTA"
)

// AuditEntry entrada de la bitácora de una sesión de conteo.
type AuditEntry struct {
	ID        string
	SessionID string
	ProductID string
	Action    string
	ActorID   string
	Detail    string
	CreatedAt time.Time
}
