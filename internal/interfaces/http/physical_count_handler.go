package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/dto"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	"github.com/umonge0811/TucoAPP-sub003/internal/domain/entity"
)

// PhysicalCountHandler maneja las peticiones HTTP de sesiones de conteo físico (protegido).
type PhysicalCountHandler struct {
	svc *physicalcount.Service
	log zerolog.Logger
}

// NewPhysicalCountHandler construye el handler.
func NewPhysicalCountHandler(svc *physicalcount.Service, log zerolog.Logger) *PhysicalCountHandler {
	return &PhysicalCountHandler{svc: svc, log: log.With().Str("component", "http.physical_counts").Logger()}
}

// Schedule godoc
// @Summary      Programar sesión de conteo
// @Tags         physical-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScheduleSessionRequest  true  "título, fecha y productos"
// @Success      201   {object}  dto.APIResponse
// @Failure      400   {object}  dto.APIResponse
// @Router       /api/physical-counts [post]
func (h *PhysicalCountHandler) Schedule(c *fiber.Ctx) error {
	var in dto.ScheduleSessionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	s, err := h.svc.ScheduleSession(c.UserContext(), physicalcount.ScheduleInput{
		Title:         in.Title,
		ScheduledDate: in.ScheduledDate,
		ProductIDs:    in.ProductIDs,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToSessionResponse(s), "sesión programada")
}

// List godoc
// @Summary      Listar sesiones de conteo
// @Tags         physical-counts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PROGRAMADA | EN_PROGRESO | COMPLETADA | CANCELADA"
// @Param        limit   query  int     false  "máximo 200"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  dto.APIResponse
// @Router       /api/physical-counts [get]
func (h *PhysicalCountHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_QUERY", "parámetros inválidos")
	}
	if err := validate.Struct(page); err != nil {
		return fail(c, fiber.StatusBadRequest, "VALIDATION", validationMessage(err))
	}
	page.DefaultPage()
	status := entity.SessionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return fail(c, fiber.StatusBadRequest, "VALIDATION", "estado de sesión desconocido")
	}
	list, err := h.svc.ListSessions(c.UserContext(), status, page.Limit, page.Offset)
	if err != nil {
		return failErr(c, h.log, err)
	}
	out := dto.SessionPage{
		Items: make([]dto.SessionResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, s := range list {
		out.Items = append(out.Items, dto.ToSessionResponse(s))
	}
	return respond(c, fiber.StatusOK, out, "sesiones")
}

// Get detalle de la sesión con líneas, asignados y resumen de ajustes.
func (h *PhysicalCountHandler) Get(c *fiber.Ctx) error {
	d, err := h.svc.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToSessionDetailResponse(d), "sesión")
}

func (h *PhysicalCountHandler) AddProducts(c *fiber.Ctx) error {
	var in dto.AddProductsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.svc.AddProducts(c.UserContext(), c.Params("id"), in.ProductIDs, GetUserID(c)); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, nil, "productos agregados")
}

func (h *PhysicalCountHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignUserRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	a, err := h.svc.AssignUser(c.UserContext(), c.Params("id"), in.UserID, GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToAssignmentResponse(a), "contador asignado")
}

func (h *PhysicalCountHandler) Unassign(c *fiber.Ctx) error {
	if err := h.svc.UnassignUser(c.UserContext(), c.Params("id"), c.Params("userId"), GetUserID(c)); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, nil, "contador desasignado")
}

// Reassign godoc
// @Summary      Reasignar contador (solo admin, también con la sesión en progreso)
// @Tags         physical-counts
// @Security     Bearer
// @Router       /api/physical-counts/{id}/assignments/{userId} [put]
func (h *PhysicalCountHandler) Reassign(c *fiber.Ctx) error {
	var in dto.ReassignUserRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.svc.ReassignUser(c.UserContext(), c.Params("id"), c.Params("userId"), in.ToUserID, GetUserID(c)); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, nil, "contador reasignado")
}

// Start godoc
// @Summary      Iniciar sesión: toma el snapshot de stock de cada línea
// @Tags         physical-counts
// @Security     Bearer
// @Router       /api/physical-counts/{id}/start [post]
func (h *PhysicalCountHandler) Start(c *fiber.Ctx) error {
	s, err := h.svc.StartSession(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToSessionResponse(s), "sesión iniciada")
}

// CaptureCount godoc
// @Summary      Registrar conteo físico de un producto
// @Tags         physical-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CaptureCountRequest  true  "producto y cantidad contada"
// @Success      200  {object}  dto.APIResponse
// @Failure      400  {object}  dto.APIResponse
// @Failure      403  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Router       /api/physical-counts/{id}/counts [post]
func (h *PhysicalCountHandler) CaptureCount(c *fiber.Ctx) error {
	var in dto.CaptureCountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	res, err := h.svc.CaptureCount(c.UserContext(), physicalcount.CountInput{
		SessionID:    c.Params("id"),
		ProductID:    in.ProductID,
		UserID:       GetUserID(c),
		Quantity:     *in.CountedQuantity,
		Observations: in.Observations,
	})
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToCountResultResponse(res), "conteo registrado")
}

func (h *PhysicalCountHandler) ListAdjustments(c *fiber.Ctx) error {
	list, err := h.svc.ListPendingAdjustments(c.UserContext(), c.Params("id"), c.Query("product_id"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAdjustmentList(list), "ajustes")
}

func (h *PhysicalCountHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.svc.SummarizeAdjustments(c.UserContext(), c.Params("id"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToSummaryResponse(sum), "resumen de ajustes")
}

// UpsertAdjustment crea o actualiza el ajuste Pendiente del producto.
func (h *PhysicalCountHandler) UpsertAdjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	adj, err := h.svc.CreateOrUpdatePendingAdjustment(c.UserContext(), physicalcount.AdjustmentInput{
		SessionID:   c.Params("id"),
		ProductID:   in.ProductID,
		RequestedBy: GetUserID(c),
		Type:        entity.AdjustmentType(in.Type),
		Quantity:    *in.Quantity,
		Reason:      in.Reason,
	})
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAdjustmentResponse(adj), "ajuste registrado")
}

func (h *PhysicalCountHandler) DeleteAdjustment(c *fiber.Ctx) error {
	if err := h.svc.DeletePendingAdjustment(c.UserContext(), c.Params("adjId"), GetUserID(c)); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, nil, "ajuste eliminado")
}

func (h *PhysicalCountHandler) ApproveAdjustment(c *fiber.Ctx) error {
	adj, err := h.svc.ApproveAdjustment(c.UserContext(), c.Params("adjId"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAdjustmentResponse(adj), "ajuste aprobado")
}

func (h *PhysicalCountHandler) RejectAdjustment(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	adj, err := h.svc.RejectAdjustment(c.UserContext(), c.Params("adjId"), GetUserID(c), in.Reason)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAdjustmentResponse(adj), "ajuste rechazado")
}

func (h *PhysicalCountHandler) ResumeAdjustment(c *fiber.Ctx) error {
	adj, err := h.svc.ResumeAdjustment(c.UserContext(), c.Params("adjId"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAdjustmentResponse(adj), "ajuste reabierto")
}

// ApplyAdjustment aplica de inmediato un ajuste Aprobado con la sesión aún en progreso.
func (h *PhysicalCountHandler) ApplyAdjustment(c *fiber.Ctx) error {
	mut, err := h.svc.ApplyAdjustment(c.UserContext(), c.Params("adjId"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToLedgerMutationResponse(*mut), "ajuste aplicado")
}

// ListAlerts godoc
// @Summary      Alertas de la sesión con estado de lectura del usuario
// @Tags         physical-counts
// @Security     Bearer
// @Param        solo_no_leidas  query  bool  false  "solo alertas sin leer"
// @Router       /api/physical-counts/{id}/alerts [get]
func (h *PhysicalCountHandler) ListAlerts(c *fiber.Ctx) error {
	onlyUnread := c.QueryBool("solo_no_leidas", false)
	views, err := h.svc.ListAlerts(c.UserContext(), c.Params("id"), GetUserID(c), onlyUnread)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAlertViews(views), "alertas")
}

func (h *PhysicalCountHandler) RaiseAlert(c *fiber.Ctx) error {
	var in dto.RaiseAlertRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	a, err := h.svc.RaiseAlert(c.UserContext(), physicalcount.RaiseAlertInput{
		SessionID: c.Params("id"),
		ProductID: in.ProductID,
		Severity:  entity.AlertSeverity(in.Severity),
		Message:   in.Message,
		Delta:     in.Delta,
		RaisedBy:  GetUserID(c),
	})
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, dto.ToAlertResponse(a), "alerta generada")
}

func (h *PhysicalCountHandler) MarkAlertRead(c *fiber.Ctx) error {
	if err := h.svc.MarkAlertRead(c.UserContext(), c.Params("alertId"), GetUserID(c)); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, nil, "alerta marcada como leída")
}

func (h *PhysicalCountHandler) MarkAllAlertsRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkAllAlertsRead(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"marked": n}, "alertas marcadas como leídas")
}

func (h *PhysicalCountHandler) ResolveAlert(c *fiber.Ctx) error {
	a, err := h.svc.ResolveAlert(c.UserContext(), c.Params("alertId"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAlertResponse(a), "alerta resuelta")
}

// Complete godoc
// @Summary      Completar sesión aplicando los ajustes aprobados
// @Description  Exige todas las líneas contadas, alertas atendidas y ningún ajuste Pendiente.
// @Tags         physical-counts
// @Security     Bearer
// @Success      200  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Router       /api/physical-counts/{id}/complete [post]
func (h *PhysicalCountHandler) Complete(c *fiber.Ctx) error {
	res, err := h.svc.CompleteSession(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	msg := "sesión completada"
	if res.AlreadyCompleted {
		msg = "la sesión ya estaba completada"
	}
	return respond(c, fiber.StatusOK, dto.ToApplyResultResponse(res), msg)
}

// Apply reintenta la aplicación de ajustes aprobados (idempotente).
func (h *PhysicalCountHandler) Apply(c *fiber.Ctx) error {
	res, err := h.svc.ApplyApprovedAdjustments(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToApplyResultResponse(res), "ajustes aplicados")
}

// Cancel godoc
// @Summary      Cancelar sesión
// @Description  Interrumpe una aplicación en curso y descarta ajustes no aplicados; los aplicados se conservan.
// @Tags         physical-counts
// @Security     Bearer
// @Router       /api/physical-counts/{id}/cancel [post]
func (h *PhysicalCountHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	res, err := h.svc.CancelSession(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToCancelResultResponse(res), "sesión cancelada")
}

func (h *PhysicalCountHandler) ReconcileLine(c *fiber.Ctx) error {
	out, err := h.svc.ReconcileLine(c.UserContext(), c.Params("id"), c.Params("productId"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToReconcileResponse(out), "línea conciliada")
}

func (h *PhysicalCountHandler) Audit(c *fiber.Ctx) error {
	list, err := h.svc.ListAudit(c.UserContext(), c.Params("id"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, dto.ToAuditResponse(list), "bitácora")
}

// MovementEvent godoc
// @Summary      Notificar un movimiento de stock registrado por un sistema externo
// @Tags         physical-counts
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.MovementEventRequest  true  "movimiento"
// @Success      202  {object}  dto.APIResponse
// @Router       /api/physical-counts/movement-events [post]
func (h *PhysicalCountHandler) MovementEvent(c *fiber.Ctx) error {
	var in dto.MovementEventRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	ev := physicalcount.MovementEvent{
		MovementID: in.MovementID,
		ProductID:  in.ProductID,
		OccurredAt: in.OccurredAt,
		Delta:      in.Delta,
		Cause:      in.Cause,
		Reference:  in.Reference,
		RecordedBy: GetUserID(c),
	}
	if err := h.svc.HandleMovement(c.UserContext(), ev); err != nil {
		return failErr(c, h.log, err)
	}
	return respond(c, fiber.StatusAccepted, fiber.Map{"movement_id": ev.MovementID}, "movimiento recibido")
}
