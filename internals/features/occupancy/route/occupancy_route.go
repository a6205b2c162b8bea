// file: internals/features/occupancy/route/occupancy_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	occapi "kostku_backend/internals/features/occupancy/controller"
)

/*
Occupancy routes: hunian kamar + perwakilan penerima tagihan.
*/
func OccupancyRoutes(api fiber.Router, db *gorm.DB) {
	h := &occapi.OccupancyHandler{DB: db}

	{
		// =========================
		// Occupancies
		// =========================
		api.Post("/occupancies", h.Create)
		api.Get("/occupancies", h.List)
		api.Post("/occupancies/:id/end", h.End)

		// =========================
		// Rooms — perwakilan & penghuni aktif
		// =========================
		api.Post("/rooms/:room_id/representative", h.SetRepresentative)
		api.Get("/rooms/:room_id/representative", h.GetRepresentative)
		api.Get("/rooms/:room_id/tenants", h.ListTenants)
	}
}
