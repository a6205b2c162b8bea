// file: internals/features/billing/payments/route/payment_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	payapi "kostku_backend/internals/features/billing/payments/controller"
)

/*
Payment routes: catat, selesaikan, refund pembayaran + listing.
*/
func PaymentRoutes(api fiber.Router, db *gorm.DB) {
	h := &payapi.PaymentHandler{DB: db}

	{
		// =========================
		// Payments
		// =========================
		api.Post("/payments", h.Record)
		api.Post("/payments/:id/complete", h.Complete)
		api.Post("/payments/:id/fail", h.Fail)
		api.Post("/payments/:id/refund", h.Refund)

		// =========================
		// Reads
		// =========================
		api.Get("/bills/:id/payments", h.ListByBill)
		api.Get("/payers/:payer_id/payments", h.ListByPayer)
	}
}
