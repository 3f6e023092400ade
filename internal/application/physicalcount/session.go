package physicalcount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// ScheduleInput datos para programar una sesión.
type ScheduleInput struct {
	Title         string
	ScheduledDate time.Time
	ProductIDs    []string
	CreatedBy     string
}

// SessionDetail sesión con sus líneas, asignados y resumen de ajustes.
type SessionDetail struct {
	Session     *entity.InventorySession
	Lines       []*entity.SessionLine
	Assignments []*entity.Assignment
	Summary     *AdjustmentSummary
}

// CancelResult efecto de cancelar una sesión.
type CancelResult struct {
	Session      *entity.InventorySession
	Discarded    int  // ajustes Pendiente/Aprobado descartados
	Applied      int  // ajustes ya aplicados que se conservan
	AbortedApply bool // se interrumpió una aplicación en curso
}

func normalizeProductIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) newLines(sessionID string, productIDs []string) []*entity.SessionLine {
	now := s.now()
	lines := make([]*entity.SessionLine, 0, len(productIDs))
	for _, p := range productIDs {
		lines = append(lines, &entity.SessionLine{
			SessionID:      sessionID,
			ProductID:      p,
			SystemQuantity: decimal.Zero,
			Drift:          decimal.Zero,
			LastModifiedAt: now,
		})
	}
	return lines
}

// ScheduleSession crea una sesión PROGRAMADA con una línea por producto.
func (s *Service) ScheduleSession(ctx context.Context, in ScheduleInput) (*entity.InventorySession, error) {
	title := strings.TrimSpace(in.Title)
	products := normalizeProductIDs(in.ProductIDs)
	if title == "" || in.CreatedBy == "" || in.ScheduledDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	now := s.now()
	session := &entity.InventorySession{
		ID:            uuid.New().String(),
		Title:         title,
		ScheduledDate: in.ScheduledDate.UTC(),
		Status:        entity.SessionStatusScheduled,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
		if err := st.Sessions.Create(ctx, session); err != nil {
			return err
		}
		if len(products) > 0 {
			if err := st.Lines.CreateBatch(ctx, s.newLines(session.ID, products)); err != nil {
				return err
			}
		}
		return s.audit(ctx, st, session.ID, "", entity.AuditSessionScheduled, in.CreatedBy,
			fmt.Sprintf("%d productos", len(products)))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", session.ID).Int("products", len(products)).Msg("sesión programada")
	return session, nil
}

// AddProducts agrega líneas a una sesión PROGRAMADA. Los productos ya presentes se ignoran.
func (s *Service) AddProducts(ctx context.Context, sessionID string, productIDs []string, actorID string) error {
	products := normalizeProductIDs(productIDs)
	if len(products) == 0 {
		return domain.ErrInvalidInput
	}
	return s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if session.Status != entity.SessionStatusScheduled {
				return domain.ErrSessionNotActive
			}
			if err := st.Lines.CreateBatch(ctx, s.newLines(sessionID, products)); err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, "", entity.AuditProductsAdded, actorID,
				fmt.Sprintf("agregados %d productos", len(products)))
		})
	})
}

// AssignUser asigna un contador a una sesión PROGRAMADA.
func (s *Service) AssignUser(ctx context.Context, sessionID, userID, assignedBy string) (*entity.Assignment, error) {
	if sessionID == "" || strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidInput
	}
	var assignment *entity.Assignment
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if session.Status != entity.SessionStatusScheduled {
				return domain.ErrSessionNotActive
			}
			assignment = &entity.Assignment{
				SessionID:  sessionID,
				UserID:     userID,
				AssignedBy: assignedBy,
				AssignedAt: s.now(),
			}
			if err := st.Assignments.Create(ctx, assignment); err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, "", entity.AuditCounterAssigned, assignedBy, userID)
		})
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// UnassignUser retira un contador de una sesión PROGRAMADA.
func (s *Service) UnassignUser(ctx context.Context, sessionID, userID, actorID string) error {
	return s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if session.Status != entity.SessionStatusScheduled {
				return domain.ErrSessionNotActive
			}
			if err := st.Assignments.Delete(ctx, sessionID, userID); err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, "", entity.AuditCounterUnassigned, actorID, userID)
		})
	})
}

// ReassignUser reemplaza un contador por otro. Permitido también con la sesión EN_PROGRESO;
// los conteos ya registrados conservan a su autor.
func (s *Service) ReassignUser(ctx context.Context, sessionID, fromUserID, toUserID, actorID string) error {
	if fromUserID == "" || strings.TrimSpace(toUserID) == "" || fromUserID == toUserID {
		return domain.ErrInvalidInput
	}
	return s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if session.Status.IsTerminal() {
				return domain.ErrSessionNotActive
			}
			if err := st.Assignments.Delete(ctx, sessionID, fromUserID); err != nil {
				return err
			}
			if err := st.Assignments.Create(ctx, &entity.Assignment{
				SessionID:  sessionID,
				UserID:     toUserID,
				AssignedBy: actorID,
				AssignedAt: s.now(),
			}); err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, "", entity.AuditCounterReassigned, actorID,
				fmt.Sprintf("%s -> %s", fromUserID, toUserID))
		})
	})
}

// StartSession pasa la sesión a EN_PROGRESO y congela el stock de sistema de cada línea.
func (s *Service) StartSession(ctx context.Context, sessionID, actorID string) (*entity.InventorySession, error) {
	var session *entity.InventorySession
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			var err error
			session, err = loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if !session.Status.CanTransitionTo(entity.SessionStatusInProgress) {
				return domain.ErrSessionNotActive
			}
			assignments, err := st.Assignments.ListBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				return domain.ErrNoAssignments
			}
			lines, err := st.Lines.ListBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return domain.ErrEmptySession
			}
			now := s.now()
			for _, line := range lines {
				qty, err := st.Stock.GetQuantity(ctx, line.ProductID)
				if err != nil {
					return err
				}
				if err := st.Lines.SetSnapshot(ctx, sessionID, line.ProductID, qty, now); err != nil {
					return err
				}
			}
			session.Status = entity.SessionStatusInProgress
			session.StartedAt = &now
			session.UpdatedAt = now
			if err := st.Sessions.Update(ctx, session); err != nil {
				return err
			}
			return s.audit(ctx, st, sessionID, "", entity.AuditSessionStarted, actorID,
				fmt.Sprintf("snapshot de %d líneas", len(lines)))
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", sessionID).Msg("sesión iniciada")
	return session, nil
}

// CancelSession cancela la sesión. Interrumpe una aplicación en curso, descarta los ajustes
// Pendiente/Aprobado y conserva los ya aplicados.
func (s *Service) CancelSession(ctx context.Context, sessionID, actorID, reason string) (*CancelResult, error) {
	res := &CancelResult{AbortedApply: s.inflight.abort(sessionID)}
	if res.AbortedApply {
		s.log.Warn().Str("session_id", sessionID).Msg("aplicación en curso interrumpida por cancelación")
	}
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			session, err := loadSession(ctx, st, sessionID)
			if err != nil {
				return err
			}
			if !session.Status.CanTransitionTo(entity.SessionStatusCancelled) {
				return domain.ErrSessionNotActive
			}
			adjustments, err := st.Adjustments.ListBySession(ctx, sessionID, "")
			if err != nil {
				return err
			}
			now := s.now()
			res.Discarded, res.Applied = 0, 0
			for _, adj := range adjustments {
				switch adj.Status {
				case entity.AdjustmentStatusAplicado:
					res.Applied++
				case entity.AdjustmentStatusPendiente, entity.AdjustmentStatusAprobado:
					adj.Status = entity.AdjustmentStatusRechazado
					adj.LastUpdatedBy = actorID
					adj.LastUpdatedAt = now
					if err := st.Adjustments.Update(ctx, adj); err != nil {
						return err
					}
					res.Discarded++
				}
			}
			session.Status = entity.SessionStatusCancelled
			session.CancelledAt = &now
			session.UpdatedAt = now
			if err := st.Sessions.Update(ctx, session); err != nil {
				return err
			}
			res.Session = session
			return s.audit(ctx, st, sessionID, "", entity.AuditSessionCancelled, actorID,
				fmt.Sprintf("%s (descartados %d, aplicados %d)", reason, res.Discarded, res.Applied))
		})
	})
	if err != nil {
		return nil, err
	}
	s.locker.Release(sessionID)
	s.log.Info().Str("session_id", sessionID).Int("discarded", res.Discarded).Int("applied", res.Applied).
		Msg("sesión cancelada")
	return res, nil
}

// GetSession devuelve la sesión con sus líneas, asignados y resumen de ajustes.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionDetail, error) {
	session, err := s.read.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	lines, err := s.read.Lines.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.read.Assignments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.read.Adjustments.ListBySession(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}
	return &SessionDetail{
		Session:     session,
		Lines:       lines,
		Assignments: assignments,
		Summary:     summarize(sessionID, adjustments),
	}, nil
}

// ListSessions lista sesiones, opcionalmente filtradas por estado.
func (s *Service) ListSessions(ctx context.Context, status entity.SessionStatus, limit, offset int) ([]*entity.InventorySession, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.read.Sessions.List(ctx, status, limit, offset)
}

// ListAudit bitácora de la sesión en orden cronológico.
func (s *Service) ListAudit(ctx context.Context, sessionID string) ([]*entity.AuditEntry, error) {
	session, err := s.read.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.read.Audit.ListBySession(ctx, sessionID)
}
