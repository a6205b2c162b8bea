// file: internals/databases/migrate.go
package database

import (
	"log"

	"gorm.io/gorm"

	billmodel "kostku_backend/internals/features/billing/bills/model"
	paymentmodel "kostku_backend/internals/features/billing/payments/model"
	occupancymodel "kostku_backend/internals/features/occupancy/model"
)

// Migrate menjalankan AutoMigrate + index penjaga invariant.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&occupancymodel.RoomOccupancy{},
		&billmodel.Bill{},
		&paymentmodel.BillPayment{},
	); err != nil {
		return err
	}

	// Partial unique index: maksimal SATU perwakilan aktif per kamar.
	// Lapisan kedua di bawah transaksi SetRepresentative (defense in depth).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_room_active_representative
		ON room_occupancies (room_occupancy_room_id)
		WHERE room_occupancy_is_representative = TRUE
		  AND room_occupancy_status = 'active'
		  AND room_occupancy_deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	log.Println("✅ Migrasi selesai.")
	return nil
}
