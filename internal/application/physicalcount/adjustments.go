package physicalcount

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/repository"
)

// AdjustmentInput alta o actualización manual de un ajuste pendiente.
type AdjustmentInput struct {
	SessionID   string
	ProductID   string
	RequestedBy string
	Type        entity.AdjustmentType
	Quantity    decimal.Decimal
	Reason      string
}

// TypeTotals cantidad de ajustes y unidades de un tipo.
type TypeTotals struct {
	Count    int
	Quantity decimal.Decimal
}

// AdjustmentSummary agregado de los ajustes de una sesión.
type AdjustmentSummary struct {
	SessionID string
	Total     int
	ByStatus  map[entity.AdjustmentStatus]int
	// ByType solo cuenta ajustes no rechazados.
	ByType map[entity.AdjustmentType]TypeTotals
	// Net suma con signo de los ajustes no rechazados.
	Net decimal.Decimal
}

// Pending número de ajustes en estado Pendiente.
func (s *AdjustmentSummary) Pending() int {
	return s.ByStatus[entity.AdjustmentStatusPendiente]
}

func summarize(sessionID string, list []*entity.PendingAdjustment) *AdjustmentSummary {
	sum := &AdjustmentSummary{
		SessionID: sessionID,
		ByStatus:  map[entity.AdjustmentStatus]int{},
		ByType:    map[entity.AdjustmentType]TypeTotals{},
		Net:       decimal.Zero,
	}
	for _, adj := range list {
		sum.Total++
		sum.ByStatus[adj.Status]++
		if adj.Status == entity.AdjustmentStatusRechazado {
			continue
		}
		t := sum.ByType[adj.Type]
		t.Count++
		t.Quantity = t.Quantity.Add(adj.Quantity)
		sum.ByType[adj.Type] = t
		sum.Net = sum.Net.Add(adj.SignedQuantity())
	}
	return sum
}

// upsertAdjustment actualiza en sitio el ajuste activo del producto o crea uno nuevo.
// Un ajuste Aprobado cuyo tipo o cantidad cambia vuelve a Pendiente y pierde la aprobación.
func (s *Service) upsertAdjustment(ctx context.Context, st repository.Stores, sessionID, productID, actorID string,
	typ entity.AdjustmentType, qty decimal.Decimal, reason string) (*entity.PendingAdjustment, error) {
	now := s.now()
	adj, err := st.Adjustments.GetActive(ctx, sessionID, productID)
	if err != nil {
		return nil, err
	}
	if adj != nil {
		changed := adj.Type != typ || !adj.Quantity.Equal(qty)
		if !changed && adj.Reason == reason {
			return adj, nil
		}
		adj.Type = typ
		adj.Quantity = qty
		adj.Reason = reason
		adj.LastUpdatedBy = actorID
		adj.LastUpdatedAt = now
		if changed && adj.Status == entity.AdjustmentStatusAprobado {
			adj.Status = entity.AdjustmentStatusPendiente
			adj.ApprovedBy = ""
			adj.ApprovedAt = nil
		}
		if err := st.Adjustments.Update(ctx, adj); err != nil {
			return nil, err
		}
	} else {
		adj = &entity.PendingAdjustment{
			ID:            uuid.New().String(),
			SessionID:     sessionID,
			ProductID:     productID,
			Type:          typ,
			Quantity:      qty,
			Reason:        reason,
			Status:        entity.AdjustmentStatusPendiente,
			CreatedBy:     actorID,
			CreatedAt:     now,
			LastUpdatedBy: actorID,
			LastUpdatedAt: now,
		}
		if err := st.Adjustments.Create(ctx, adj); err != nil {
			return nil, err
		}
	}
	if err := s.audit(ctx, st, sessionID, productID, entity.AuditAdjustmentUpserted, actorID,
		fmt.Sprintf("%s %s", typ, qty.String())); err != nil {
		return nil, err
	}
	return adj, nil
}

// appliedNet suma con signo de los ajustes ya aplicados a la línea.
func appliedNet(ctx context.Context, st repository.Stores, sessionID, productID string) (decimal.Decimal, error) {
	list, err := st.Adjustments.ListBySession(ctx, sessionID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	net := decimal.Zero
	for _, adj := range list {
		if adj.Status == entity.AdjustmentStatusAplicado {
			net = net.Add(adj.SignedQuantity())
		}
	}
	return net, nil
}

// syncAdjustment deja el ajuste activo de la línea acorde a la discrepancia que falta corregir
// (discrepancia actual menos lo ya aplicado). Sin nada por corregir retira el ajuste activo
// (queda Rechazado) y devuelve nil.
func (s *Service) syncAdjustment(ctx context.Context, st repository.Stores, line *entity.SessionLine,
	actorID, reason string) (*entity.PendingAdjustment, error) {
	applied, err := appliedNet(ctx, st, line.SessionID, line.ProductID)
	if err != nil {
		return nil, err
	}
	typ, qty, ok := inventory.AdjustmentFor(line.Discrepancy().Sub(applied))
	if ok {
		return s.upsertAdjustment(ctx, st, line.SessionID, line.ProductID, actorID, typ, qty, reason)
	}
	active, err := st.Adjustments.GetActive(ctx, line.SessionID, line.ProductID)
	if err != nil || active == nil {
		return nil, err
	}
	active.Status = entity.AdjustmentStatusRechazado
	active.Reason = "sin discrepancia"
	active.LastUpdatedBy = actorID
	active.LastUpdatedAt = s.now()
	if err := st.Adjustments.Update(ctx, active); err != nil {
		return nil, err
	}
	return nil, s.audit(ctx, st, line.SessionID, line.ProductID, entity.AuditAdjustmentRejected, actorID, "sin discrepancia")
}

// CreateOrUpdatePendingAdjustment registra o corrige manualmente el ajuste activo de un producto.
func (s *Service) CreateOrUpdatePendingAdjustment(ctx context.Context, in AdjustmentInput) (*entity.PendingAdjustment, error) {
	if !in.Type.Valid() || in.SessionID == "" || in.ProductID == "" || in.RequestedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	if !inventory.IsWholePositive(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	reason := strings.TrimSpace(in.Reason)
	var adj *entity.PendingAdjustment
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
			adj, err = s.upsertAdjustment(ctx, st, in.SessionID, in.ProductID, in.RequestedBy, in.Type, in.Quantity, reason)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// mutateAdjustment localiza la sesión del ajuste, toma su candado y ejecuta fn en transacción.
func (s *Service) mutateAdjustment(ctx context.Context, adjustmentID string,
	fn func(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment) error) (*entity.PendingAdjustment, error) {
	probe, err := s.read.Adjustments.GetByID(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, domain.ErrNotFound
	}
	var adj *entity.PendingAdjustment
	err = s.withSession(ctx, probe.SessionID, func(ctx context.Context) error {
		return s.tx.Run(ctx, func(ctx context.Context, st repository.Stores) error {
			var err error
			adj, err = st.Adjustments.GetByID(ctx, adjustmentID)
			if err != nil {
				return err
			}
			if adj == nil {
				return domain.ErrNotFound
			}
			return fn(ctx, st, adj)
		})
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// DeletePendingAdjustment elimina un ajuste en estado Pendiente.
func (s *Service) DeletePendingAdjustment(ctx context.Context, adjustmentID, actorID string) error {
	_, err := s.mutateAdjustment(ctx, adjustmentID, func(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment) error {
		if adj.Status != entity.AdjustmentStatusPendiente {
			return domain.ErrAdjustmentNotEditable
		}
		if err := st.Adjustments.Delete(ctx, adj.ID); err != nil {
			return err
		}
		return s.audit(ctx, st, adj.SessionID, adj.ProductID, entity.AuditAdjustmentDeleted, actorID, adj.ID)
	})
	return err
}

// ApproveAdjustment Pendiente -> Aprobado. Solo los aprobados se aplican al completar.
func (s *Service) ApproveAdjustment(ctx context.Context, adjustmentID, approverID string) (*entity.PendingAdjustment, error) {
	return s.mutateAdjustment(ctx, adjustmentID, func(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment) error {
		if _, err := loadActiveSession(ctx, st, adj.SessionID); err != nil {
			return err
		}
		if adj.Status != entity.AdjustmentStatusPendiente {
			return domain.ErrAdjustmentNotEditable
		}
		now := s.now()
		adj.Status = entity.AdjustmentStatusAprobado
		adj.ApprovedBy = approverID
		adj.ApprovedAt = &now
		adj.LastUpdatedBy = approverID
		adj.LastUpdatedAt = now
		if err := st.Adjustments.Update(ctx, adj); err != nil {
			return err
		}
		return s.audit(ctx, st, adj.SessionID, adj.ProductID, entity.AuditAdjustmentApproved, approverID, adj.ID)
	})
}

// RejectAdjustment descarta un ajuste no terminal.
func (s *Service) RejectAdjustment(ctx context.Context, adjustmentID, actorID, reason string) (*entity.PendingAdjustment, error) {
	return s.mutateAdjustment(ctx, adjustmentID, func(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment) error {
		if _, err := loadActiveSession(ctx, st, adj.SessionID); err != nil {
			return err
		}
		if adj.Status.IsTerminal() {
			return domain.ErrAdjustmentNotEditable
		}
		adj.Status = entity.AdjustmentStatusRechazado
		if r := strings.TrimSpace(reason); r != "" {
			adj.Reason = r
		}
		adj.LastUpdatedBy = actorID
		adj.LastUpdatedAt = s.now()
		if err := st.Adjustments.Update(ctx, adj); err != nil {
			return err
		}
		return s.audit(ctx, st, adj.SessionID, adj.ProductID, entity.AuditAdjustmentRejected, actorID, reason)
	})
}

// ResumeAdjustment reabre un ajuste Aprobado a Pendiente. Sobre un Pendiente no hace nada.
func (s *Service) ResumeAdjustment(ctx context.Context, adjustmentID, actorID string) (*entity.PendingAdjustment, error) {
	return s.mutateAdjustment(ctx, adjustmentID, func(ctx context.Context, st repository.Stores, adj *entity.PendingAdjustment) error {
		if _, err := loadActiveSession(ctx, st, adj.SessionID); err != nil {
			return err
		}
		switch adj.Status {
		case entity.AdjustmentStatusPendiente:
			return nil
		case entity.AdjustmentStatusAprobado:
		default:
			return domain.ErrAdjustmentNotEditable
		}
		adj.Status = entity.AdjustmentStatusPendiente
		adj.ApprovedBy = ""
		adj.ApprovedAt = nil
		adj.LastUpdatedBy = actorID
		adj.LastUpdatedAt = s.now()
		if err := st.Adjustments.Update(ctx, adj); err != nil {
			return err
		}
		return s.audit(ctx, st, adj.SessionID, adj.ProductID, entity.AuditAdjustmentResumed, actorID, adj.ID)
	})
}

// ListPendingAdjustments ajustes de la sesión; productID vacío lista todos.
func (s *Service) ListPendingAdjustments(ctx context.Context, sessionID, productID string) ([]*entity.PendingAdjustment, error) {
	session, err := s.read.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.read.Adjustments.ListBySession(ctx, sessionID, productID)
}

// SummarizeAdjustments totales por estado y tipo de los ajustes de la sesión.
func (s *Service) SummarizeAdjustments(ctx context.Context, sessionID string) (*AdjustmentSummary, error) {
	list, err := s.ListPendingAdjustments(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}
	return summarize(sessionID, list), nil
}
