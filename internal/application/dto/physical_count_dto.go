package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// ScheduleSessionRequest body para POST /api/physical-counts.
type ScheduleSessionRequest struct {
	Title         string    `json:"title" validate:"required,max=150"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	ProductIDs    []string  `json:"product_ids" validate:"dive,required,max=64"`
}

// AddProductsRequest body para POST /api/physical-counts/:id/products.
type AddProductsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required,max=64"`
}

// AssignUserRequest body para POST /api/physical-counts/:id/assignments.
type AssignUserRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
}

// ReassignUserRequest body para PUT /api/physical-counts/:id/assignments/:userId.
type ReassignUserRequest struct {
	ToUserID string `json:"to_user_id" validate:"required,max=64"`
}

// CaptureCountRequest body para POST /api/physical-counts/:id/counts.
type CaptureCountRequest struct {
	ProductID       string           `json:"product_id" validate:"required,max=64"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity" validate:"required"`
	Observations    string           `json:"observations,omitempty" validate:"max=500"`
}

// AdjustmentRequest body para PUT /api/physical-counts/:id/adjustments.
type AdjustmentRequest struct {
	ProductID string           `json:"product_id" validate:"required,max=64"`
	Type      string           `json:"type" validate:"required,oneof=entrada salida"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
	Reason    string           `json:"reason,omitempty" validate:"max=500"`
}

// ReasonRequest motivo opcional (rechazo de ajuste, cancelación de sesión).
type ReasonRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// RaiseAlertRequest body para POST /api/physical-counts/:id/alerts.
type RaiseAlertRequest struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Severity  string          `json:"severity" validate:"required,oneof=recuento_sugerido conteo_conflictivo"`
	Message   string          `json:"message" validate:"required,max=500"`
	Delta     decimal.Decimal `json:"delta"`
}

// SessionResponse sesión de conteo.
type SessionResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Status        string     `json:"status"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// SessionPage listado paginado de sesiones.
type SessionPage struct {
	Items []SessionResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SessionLineResponse línea con su discrepancia actual.
type SessionLineResponse struct {
	ProductID       string           `json:"product_id"`
	SystemQuantity  decimal.Decimal  `json:"system_quantity"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity"`
	CountingUserID  string           `json:"counting_user_id,omitempty"`
	Observations    string           `json:"observations,omitempty"`
	CountedAt       *time.Time       `json:"counted_at,omitempty"`
	ExpectedAtCount decimal.Decimal  `json:"expected_at_count"`
	Drift           decimal.Decimal  `json:"drift"`
	Discrepancy     decimal.Decimal  `json:"discrepancy"`
	Version         int64            `json:"version"`
}

// AssignmentResponse contador asignado.
type AssignmentResponse struct {
	UserID     string    `json:"user_id"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AdjustmentResponse ajuste pendiente.
type AdjustmentResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	ProductID     string          `json:"product_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reason        string          `json:"reason,omitempty"`
	Status        string          `json:"status"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	LastUpdatedBy string          `json:"last_updated_by"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
	ApprovedBy    string          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	AppliedAt     *time.Time      `json:"applied_at,omitempty"`
}

// TypeTotalsResponse totales de un tipo de ajuste.
type TypeTotalsResponse struct {
	Count    int             `json:"count"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AdjustmentSummaryResponse resumen de ajustes de la sesión.
type AdjustmentSummaryResponse struct {
	SessionID string                        `json:"session_id"`
	Total     int                           `json:"total"`
	ByStatus  map[string]int                `json:"by_status"`
	ByType    map[string]TypeTotalsResponse `json:"by_type"`
	Net       decimal.Decimal               `json:"net"`
}

// SessionDetailResponse sesión con líneas, asignados y resumen.
type SessionDetailResponse struct {
	Session     SessionResponse           `json:"session"`
	Lines       []SessionLineResponse     `json:"lines"`
	Assignments []AssignmentResponse      `json:"assignments"`
	Summary     AdjustmentSummaryResponse `json:"summary"`
}

// AlertResponse alerta con el estado de lectura del usuario que consulta.
type AlertResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Severity   string          `json:"severity"`
	Message    string          `json:"message"`
	Delta      decimal.Decimal `json:"delta"`
	CreatedAt  time.Time       `json:"created_at"`
	Read       bool            `json:"read"`
	ReadAt     *time.Time      `json:"read_at,omitempty"`
	ResolvedBy string          `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// CountResultResponse resultado de registrar un conteo.
type CountResultResponse struct {
	Line       SessionLineResponse `json:"line"`
	Adjustment *AdjustmentResponse `json:"adjustment,omitempty"`
	Alerts     []AlertResponse     `json:"alerts,omitempty"`
}

// LedgerMutationResponse escritura aplicada al stock.
type LedgerMutationResponse struct {
	AdjustmentID string          `json:"adjustment_id"`
	ProductID    string          `json:"product_id"`
	MovementID   string          `json:"movement_id"`
	Delta        decimal.Decimal `json:"delta"`
	Before       decimal.Decimal `json:"before"`
	After        decimal.Decimal `json:"after"`
}

// ApplyResultResponse resultado de completar o reaplicar.
type ApplyResultResponse struct {
	Session          SessionResponse          `json:"session"`
	Applied          []LedgerMutationResponse `json:"applied"`
	AlreadyCompleted bool                     `json:"already_completed"`
}

// CancelResultResponse resultado de cancelar.
type CancelResultResponse struct {
	Session      SessionResponse `json:"session"`
	Discarded    int             `json:"discarded"`
	Applied      int             `json:"applied"`
	AbortedApply bool            `json:"aborted_apply"`
}

// ReconcileResponse resultado de conciliar una línea.
type ReconcileResponse struct {
	ProductID   string              `json:"product_id"`
	Changed     bool                `json:"changed"`
	Drift       decimal.Decimal     `json:"drift"`
	Discrepancy decimal.Decimal     `json:"discrepancy"`
	Adjustment  *AdjustmentResponse `json:"adjustment,omitempty"`
	AlertID     string              `json:"alert_id,omitempty"`
}

// AuditEntryResponse entrada de bitácora.
type AuditEntryResponse struct {
	ProductID string    `json:"product_id,omitempty"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSessionResponse mapea la sesión.
func ToSessionResponse(s *entity.InventorySession) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		Title:         s.Title,
		ScheduledDate: s.ScheduledDate,
		Status:        string(s.Status),
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		CancelledAt:   s.CancelledAt,
	}
}

// ToSessionLineResponse mapea la línea.
func ToSessionLineResponse(l *entity.SessionLine) SessionLineResponse {
	return SessionLineResponse{
		ProductID:       l.ProductID,
		SystemQuantity:  l.SystemQuantity,
		CountedQuantity: l.CountedQuantity,
		CountingUserID:  l.CountingUserID,
		Observations:    l.Observations,
		CountedAt:       l.CountedAt,
		ExpectedAtCount: l.ExpectedAtCount,
		Drift:           l.Drift,
		Discrepancy:     l.Discrepancy(),
		Version:         l.Version,
	}
}

// ToAdjustmentResponse mapea el ajuste; nil si adj es nil.
func ToAdjustmentResponse(adj *entity.PendingAdjustment) *AdjustmentResponse {
	if adj == nil {
		return nil
	}
	return &AdjustmentResponse{
		ID:            adj.ID,
		SessionID:     adj.SessionID,
		ProductID:     adj.ProductID,
		Type:          string(adj.Type),
		Quantity:      adj.Quantity,
		Reason:        adj.Reason,
		Status:        string(adj.Status),
		CreatedBy:     adj.CreatedBy,
		CreatedAt:     adj.CreatedAt,
		LastUpdatedBy: adj.LastUpdatedBy,
		LastUpdatedAt: adj.LastUpdatedAt,
		ApprovedBy:    adj.ApprovedBy,
		ApprovedAt:    adj.ApprovedAt,
		AppliedAt:     adj.AppliedAt,
	}
}

// ToAdjustmentList mapea una lista de ajustes.
func ToAdjustmentList(list []*entity.PendingAdjustment) []AdjustmentResponse {
	out := make([]AdjustmentResponse, 0, len(list))
	for _, adj := range list {
		out = append(out, *ToAdjustmentResponse(adj))
	}
	return out
}

// ToSummaryResponse mapea el resumen de ajustes.
func ToSummaryResponse(s *physicalcount.AdjustmentSummary) AdjustmentSummaryResponse {
	out := AdjustmentSummaryResponse{
		SessionID: s.SessionID,
		Total:     s.Total,
		ByStatus:  make(map[string]int, len(s.ByStatus)),
		ByType:    make(map[string]TypeTotalsResponse, len(s.ByType)),
		Net:       s.Net,
	}
	for k, v := range s.ByStatus {
		out.ByStatus[string(k)] = v
	}
	for k, v := range s.ByType {
		out.ByType[string(k)] = TypeTotalsResponse{Count: v.Count, Quantity: v.Quantity}
	}
	return out
}

// ToSessionDetailResponse mapea el detalle de sesión.
func ToSessionDetailResponse(d *physicalcount.SessionDetail) SessionDetailResponse {
	out := SessionDetailResponse{
		Session:     ToSessionResponse(d.Session),
		Lines:       make([]SessionLineResponse, 0, len(d.Lines)),
		Assignments: make([]AssignmentResponse, 0, len(d.Assignments)),
		Summary:     ToSummaryResponse(d.Summary),
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, ToSessionLineResponse(l))
	}
	for _, a := range d.Assignments {
		out.Assignments = append(out.Assignments, ToAssignmentResponse(a))
	}
	return out
}

// ToAssignmentResponse mapea una asignación.
func ToAssignmentResponse(a *entity.Assignment) AssignmentResponse {
	return AssignmentResponse{UserID: a.UserID, AssignedBy: a.AssignedBy, AssignedAt: a.AssignedAt}
}

func toAlertResponse(a *entity.Alert, read bool, readAt *time.Time) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		ProductID:  a.ProductID,
		Severity:   string(a.Severity),
		Message:    a.Message,
		Delta:      a.Delta,
		CreatedAt:  a.CreatedAt,
		Read:       read,
		ReadAt:     readAt,
		ResolvedBy: a.ResolvedBy,
		ResolvedAt: a.ResolvedAt,
	}
}

// ToAlertResponse mapea una alerta sin estado de lectura.
func ToAlertResponse(a *entity.Alert) AlertResponse {
	return toAlertResponse(a, false, nil)
}

// ToAlertViews mapea las alertas con estado de lectura.
func ToAlertViews(views []physicalcount.AlertView) []AlertResponse {
	out := make([]AlertResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toAlertResponse(v.Alert, v.Read, v.ReadAt))
	}
	return out
}

// ToCountResultResponse mapea el resultado de un conteo.
func ToCountResultResponse(r *physicalcount.CountResult) CountResultResponse {
	out := CountResultResponse{
		Line:       ToSessionLineResponse(r.Line),
		Adjustment: ToAdjustmentResponse(r.Adjustment),
	}
	for _, a := range r.Alerts {
		out.Alerts = append(out.Alerts, ToAlertResponse(a))
	}
	return out
}

// ToApplyResultResponse mapea el resultado de aplicar ajustes.
func ToApplyResultResponse(r *physicalcount.ApplyResult) ApplyResultResponse {
	out := ApplyResultResponse{
		Session:          ToSessionResponse(r.Session),
		Applied:          make([]LedgerMutationResponse, 0, len(r.Applied)),
		AlreadyCompleted: r.AlreadyCompleted,
	}
	for _, m := range r.Applied {
		out.Applied = append(out.Applied, ToLedgerMutationResponse(m))
	}
	return out
}

// ToLedgerMutationResponse mapea una escritura aplicada al stock.
func ToLedgerMutationResponse(m physicalcount.LedgerMutation) LedgerMutationResponse {
	return LedgerMutationResponse{
		AdjustmentID: m.AdjustmentID,
		ProductID:    m.ProductID,
		MovementID:   m.MovementID,
		Delta:        m.Delta,
		Before:       m.Before,
		After:        m.After,
	}
}

// ToCancelResultResponse mapea el resultado de cancelar.
func ToCancelResultResponse(r *physicalcount.CancelResult) CancelResultResponse {
	return CancelResultResponse{
		Session:      ToSessionResponse(r.Session),
		Discarded:    r.Discarded,
		Applied:      r.Applied,
		AbortedApply: r.AbortedApply,
	}
}

// ToReconcileResponse mapea el resultado de conciliar.
func ToReconcileResponse(o *physicalcount.ReconcileOutcome) ReconcileResponse {
	out := ReconcileResponse{
		ProductID:   o.ProductID,
		Changed:     o.Changed,
		Drift:       o.Drift,
		Discrepancy: o.Discrepancy,
		Adjustment:  ToAdjustmentResponse(o.Adjustment),
	}
	if o.Alert != nil {
		out.AlertID = o.Alert.ID
	}
	return out
}

// ToAuditResponse mapea la bitácora.
func ToAuditResponse(list []*entity.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, AuditEntryResponse{
			ProductID: e.ProductID,
			Action:    e.Action,
			ActorID:   e.ActorID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
