package entity

import "time"

// Assignment asignación de un contador a una sesión. El par (SessionID, UserID) es único.
type Assignment struct {
	SessionID  string
	UserID     string
	AssignedBy string
	AssignedAt time.Time
}
