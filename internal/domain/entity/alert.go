package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertSeverity tipo de alerta del conteo.
type AlertSeverity string

const (
	AlertSeverityRecountSuggested AlertSeverity = "recuento_sugerido"
	AlertSeverityConflictingCount AlertSeverity = "conteo_conflictivo"
)

// Alert conflicto sin resolver sobre una línea de la sesión.
// El estado de lectura es por usuario (ver AlertRead).
type Alert struct {
	ID         string
	SessionID  string
	ProductID  string
	Severity   AlertSeverity
	Message    string
	Delta      decimal.Decimal
	CreatedAt  time.Time
	ResolvedBy string
	ResolvedAt *time.Time
}

// IsResolved indica si un administrador la resolvió en nombre de todos los asignados.
func (a *Alert) IsResolved() bool {
	return a.ResolvedAt != nil
}

// AlertRead marca de lectura de una alerta por un usuario.
type AlertRead struct {
	AlertID string
	UserID  string
	ReadAt  time.Time
}
