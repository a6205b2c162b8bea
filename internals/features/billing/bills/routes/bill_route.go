// file: internals/features/billing/bills/routes/bill_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	billapi "kostku_backend/internals/features/billing/bills/controller"
)

/*
Bill routes (CRUD & transitions).
*/
func BillRoutes(api fiber.Router, db *gorm.DB) {
	h := &billapi.BillHandler{DB: db}

	{
		// =========================
		// Bills
		// =========================
		api.Post("/bills", h.Create)
		api.Get("/bills", h.List)
		api.Get("/bills/:id", h.Get)

		// =========================
		// Transitions
		// =========================
		api.Post("/bills/:id/send", h.Send)
		api.Post("/bills/:id/view", h.View)
		api.Post("/bills/:id/late-fee", h.LateFee)
		api.Post("/bills/:id/cancel", h.Cancel)
		api.Patch("/bills/:id/items", h.UpdateItems)
	}
}
