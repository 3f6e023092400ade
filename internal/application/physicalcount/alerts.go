package physicalcount

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// RaiseAlertInput alerta levantada manualmente sobre una línea.
type RaiseAlertInput struct {
	SessionID string
	ProductID string
	Severity  entity.AlertSeverity
	Message   string
	Delta     decimal.Decimal
	RaisedBy  string
}

// AlertView alerta con su estado de lectura para un usuario.
type AlertView struct {
	Alert  *entity.Alert
	Read   bool
	ReadAt *time.Time
}

func (s *Service) raiseAlertTx(ctx context.Context, st repository.Stores, sessionID, productID string,
	severity entity.AlertSeverity, message string, delta decimal.Decimal, actorID string) (*entity.Alert, error) {
	alert := &entity.Alert{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ProductID: productID,
		Severity:  severity,
		Message:   message,
		Delta:     delta,
		CreatedAt: s.now(),
	}
	if err := st.Alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, st, sessionID, productID, entity.AuditAlertRaised, actorID, string(severity)+": "+message); err != nil {
		return nil, err
	}
	return alert, nil
}

// RaiseAlert registra una alerta sobre un producto de una sesión EN_PROGRESO.
func (s *Service) RaiseAlert(ctx context.Context, in RaiseAlertInput) (*entity.Alert, error) {
	if in.Severity != entity.AlertSeverityRecountSuggested && in.Severity != entity.AlertSeverityConflictingCount {
		return nil, domain.ErrInvalidInput
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" || in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	var alert *entity.Alert
	err := s.withSession(ctx, in.SessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			if _, err := loadActiveSession(ctx, st, in.SessionID); err != nil {
				return err
			}
			line, err := st.Lines.Get(ctx, in.SessionID, in.ProductID)
			if err != nil {
				return err
			}
			if line == nil {
				return domain.ErrLineNotFound
			}
			alert, err = s.raiseAlertTx(ctx, st, in.SessionID, in.ProductID, in.Severity, msg, in.Delta, in.RaisedBy)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// MarkAlertRead marca la alerta como leída por userID. Repetirlo no tiene efecto.
func (s *Service) MarkAlertRead(ctx context.Context, alertID, userID string) error {
	if userID == "" {
		return domain.ErrInvalidInput
	}
	probe, err := s.read.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return err
	}
	if probe == nil {
		return domain.ErrNotFound
	}
	return s.withSession(ctx, probe.SessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			return st.Alerts.MarkRead(ctx, alertID, userID, s.now())
		})
	})
}

// MarkAllAlertsRead marca como leídas por userID todas las alertas de la sesión.
// Devuelve cuántas estaban sin leer.
func (s *Service) MarkAllAlertsRead(ctx context.Context, sessionID, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	marked := 0
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			if _, err := loadSession(ctx, st, sessionID); err != nil {
				return err
			}
			views, err := alertViews(ctx, st, sessionID, userID)
			if err != nil {
				return err
			}
			now := s.now()
			marked = 0
			for _, v := range views {
				if v.Read {
					continue
				}
				if err := st.Alerts.MarkRead(ctx, v.Alert.ID, userID, now); err != nil {
					return err
				}
				marked++
			}
			return nil
		})
	})
	return marked, err
}

func alertViews(ctx context.Context, st repository.Stores, sessionID, userID string) ([]AlertView, error) {
	alerts, err := st.Alerts.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	reads, err := st.Alerts.ListReads(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	readAt := make(map[string]time.Time)
	for _, r := range reads {
		if r.UserID == userID {
			readAt[r.AlertID] = r.ReadAt
		}
	}
	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		v := AlertView{Alert: a}
		if at, ok := readAt[a.ID]; ok {
			at := at
			v.Read = true
			v.ReadAt = &at
		}
		views = append(views, v)
	}
	return views, nil
}

// ListAlerts alertas de la sesión con el estado de lectura de userID.
// Con onlyUnread omite las leídas por el usuario y las ya resueltas.
func (s *Service) ListAlerts(ctx context.Context, sessionID, userID string, onlyUnread bool) ([]AlertView, error) {
	session, err := s.read.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	views, err := alertViews(ctx, s.read, sessionID, userID)
	if err != nil || !onlyUnread {
		return views, err
	}
	out := views[:0]
	for _, v := range views {
		if !v.Read && !v.Alert.IsResolved() {
			out = append(out, v)
		}
	}
	return out, nil
}

// ResolveAlert un administrador da por atendida la alerta en nombre de todos los asignados.
func (s *Service) ResolveAlert(ctx context.Context, alertID, adminID string) (*entity.Alert, error) {
	probe, err := s.read.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, domain.ErrNotFound
	}
	var alert *entity.Alert
	err = s.withSession(ctx, probe.SessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			var err error
			alert, err = st.Alerts.GetByID(ctx, alertID)
			if err != nil {
				return err
			}
			if alert == nil {
				return domain.ErrNotFound
			}
			if alert.IsResolved() {
				return nil
			}
			now := s.now()
			alert.ResolvedBy = adminID
			alert.ResolvedAt = &now
			if err := st.Alerts.Update(ctx, alert); err != nil {
				return err
			}
			return s.audit(ctx, st, alert.SessionID, alert.ProductID, entity.AuditAlertResolved, adminID, alert.ID)
		})
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// unacknowledgedAlerts alertas sin resolver que algún asignado todavía no leyó.
func unacknowledgedAlerts(ctx context.Context, st repository.Stores, sessionID string) (int, error) {
	alerts, err := st.Alerts.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}
	reads, err := st.Alerts.ListReads(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	assignments, err := st.Assignments.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	readBy := make(map[string]map[string]struct{})
	for _, r := range reads {
		if readBy[r.AlertID] == nil {
			readBy[r.AlertID] = map[string]struct{}{}
		}
		readBy[r.AlertID][r.UserID] = struct{}{}
	}
	pending := 0
	for _, a := range alerts {
		if a.IsResolved() {
			continue
		}
		if len(assignments) == 0 && len(readBy[a.ID]) == 0 {
			pending++
			continue
		}
		for _, as := range assignments {
			if _, ok := readBy[a.ID][as.UserID]; !ok {
				pending++
				break
			}
		}
	}
	return pending, nil
}
