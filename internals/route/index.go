// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	billRoutes "kostku_backend/internals/features/billing/bills/routes"
	paymentRoute "kostku_backend/internals/features/billing/payments/route"
	occupancyRoute "kostku_backend/internals/features/occupancy/route"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== API =====================
	api := app.Group("/api")

	log.Println("[INFO] Mounting Occupancy routes...")
	occupancyRoute.OccupancyRoutes(api, db)

	log.Println("[INFO] Mounting Bill routes...")
	billRoutes.BillRoutes(api, db)

	log.Println("[INFO] Mounting Payment routes...")
	paymentRoute.PaymentRoutes(api, db)
}
