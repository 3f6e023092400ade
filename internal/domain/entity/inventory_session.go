package entity

import "time"

// SessionStatus estado de una sesión de inventario físico.
type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "PROGRAMADA"
	SessionStatusInProgress SessionStatus = "EN_PROGRESO"
	SessionStatusCompleted  SessionStatus = "COMPLETADA"
	SessionStatusCancelled  SessionStatus = "CANCELADA"
)

// sessionTransitions transiciones permitidas de la máquina de estados.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusScheduled:  {SessionStatusInProgress, SessionStatusCancelled},
	SessionStatusInProgress: {SessionStatusCompleted, SessionStatusCancelled},
}

// Valid indica si el valor pertenece al conjunto cerrado de estados.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusInProgress, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal indica si la sesión ya no admite cambios.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// CanTransitionTo indica si la transición s -> next está permitida.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InventorySession sesión programada de conteo físico.
// Una vez iniciada nunca se elimina físicamente; solo puede cancelarse.
type InventorySession struct {
	ID            string
	Title         string
	ScheduledDate time.Time
	Status        SessionStatus
	CreatedBy     string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	UpdatedAt     time.Time
}

// IsOpen indica si la sesión está en conteo (ventana startedAt..completedAt abierta).
func (s *InventorySession) IsOpen() bool {
	return s.Status == SessionStatusInProgress
}

// CoversMovementAt indica si un movimiento en t cae dentro de la ventana activa de la sesión.
func (s *InventorySession) CoversMovementAt(t time.Time) bool {
	if s.Status != SessionStatusInProgress || s.StartedAt == nil {
		return false
	}
	return !t.Before(*s.StartedAt)
}
