package repository

// Stores agrupa los repositorios del motor de conteo atados a una misma conexión o transacción.
type Stores struct {
	Sessions    InventorySessionRepository
	Lines       SessionLineRepository
	Assignments AssignmentRepository
	Adjustments PendingAdjustmentRepository
	Movements   InventoryMovementRepository
	Alerts      AlertRepository
	Stock       StockRepository
	Audit       AuditRepository
}
