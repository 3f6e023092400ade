package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/inventory"
	"github.com/umonge0811/TucoAPP-sub003/internal/application/physicalcount"
	pkgjwt "github.com/umonge0811/TucoAPP-sub003/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Counts           *physicalcount.Service
	RegisterMovement *inventory.RegisterMovementUseCase
	Tokens           *pkgjwt.Signer
	Logger           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Tokens))

	adminOnly := RequireRole(RoleAdmin)
	counters := RequireRole(RoleAdmin, RoleBodeguero)

	// Inventory movements
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Logger)
	invGroup.Post("/movements", RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor), inventoryHandler.RegisterMovement)

	// Physical counts
	pc := protected.Group("/physical-counts")
	h := NewPhysicalCountHandler(deps.Counts, deps.Logger)

	pc.Post("/movement-events", adminOnly, h.MovementEvent)

	pc.Post("/", adminOnly, h.Schedule)
	pc.Get("/", h.List)
	pc.Get("/:id", h.Get)
	pc.Post("/:id/products", adminOnly, h.AddProducts)
	pc.Post("/:id/assignments", adminOnly, h.Assign)
	pc.Delete("/:id/assignments/:userId", adminOnly, h.Unassign)
	pc.Put("/:id/assignments/:userId", adminOnly, h.Reassign)
	pc.Post("/:id/start", adminOnly, h.Start)
	pc.Post("/:id/counts", counters, h.CaptureCount)

	pc.Get("/:id/adjustments", h.ListAdjustments)
	pc.Get("/:id/adjustments/summary", h.Summary)
	pc.Put("/:id/adjustments", counters, h.UpsertAdjustment)
	pc.Delete("/:id/adjustments/:adjId", counters, h.DeleteAdjustment)
	pc.Post("/:id/adjustments/:adjId/approve", adminOnly, h.ApproveAdjustment)
	pc.Post("/:id/adjustments/:adjId/reject", adminOnly, h.RejectAdjustment)
	pc.Post("/:id/adjustments/:adjId/resume", adminOnly, h.ResumeAdjustment)
	pc.Post("/:id/adjustments/:adjId/apply", adminOnly, h.ApplyAdjustment)

	pc.Get("/:id/alerts", h.ListAlerts)
	pc.Post("/:id/alerts", counters, h.RaiseAlert)
	pc.Post("/:id/alerts/read-all", h.MarkAllAlertsRead)
	pc.Post("/:id/alerts/:alertId/read", h.MarkAlertRead)
	pc.Post("/:id/alerts/:alertId/resolve", adminOnly, h.ResolveAlert)

	pc.Post("/:id/complete", adminOnly, h.Complete)
	pc.Post("/:id/apply", adminOnly, h.Apply)
	pc.Post("/:id/cancel", adminOnly, h.Cancel)
	pc.Post("/:id/lines/:productId/reconcile", adminOnly, h.ReconcileLine)
	pc.Get("/:id/audit", h.Audit)
}
