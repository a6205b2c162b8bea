// file: internals/features/billing/scheduler/overdue_scheduler.go
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	billmodel "kostku_backend/internals/features/billing/bills/model"
)

// StartOverdueSweeper menjalankan sweep berkala utk menandai bill lewat jatuh
// tempo sebagai overdue. Interval dari env OVERDUE_SWEEP_HOURS (default 6 jam).
// Fungsi stop yang dikembalikan menghentikan loop saat graceful shutdown;
// aman dipanggil lebih dari sekali.
func StartOverdueSweeper(db *gorm.DB) (stop func()) {
	sweepHours := 6
	if val := os.Getenv("OVERDUE_SWEEP_HOURS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			sweepHours = parsed
		}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(sweepHours) * time.Hour)
		defer ticker.Stop()

		for {
			log.Println("[SWEEPER] Menjalankan sweep bill overdue...")
			marked, err := SweepOverdueBills(context.Background(), db)
			if err != nil {
				log.Printf("[SWEEPER ERROR] Gagal ambil kandidat: %v", err)
			} else if marked > 0 {
				log.Printf("[SWEEPER] %d bill ditandai overdue", marked)
			} else {
				log.Println("[SWEEPER] Tidak ada bill yang memenuhi syarat")
			}

			select {
			case <-ticker.C:
			case <-done:
				log.Println("[SWEEPER] Berhenti.")
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// SweepOverdueBills: satu pass sweep, bisa dipanggil sinkron (ops/test).
// Kandidat: due_date lewat, status sent/viewed, masih ada sisa tagihan.
// Guard yang sama diulang di WHERE tiap update — bill yang keburu lunas
// di antara seleksi dan update tidak akan salah tandai. Satu bill gagal
// tidak menghentikan sisanya.
func SweepOverdueBills(ctx context.Context, db *gorm.DB) (int, error) {
	now := time.Now()

	var ids []uuid.UUID
	if err := db.WithContext(ctx).Model(&billmodel.Bill{}).
		Where("bill_status IN ?", []billmodel.BillStatus{billmodel.BillStatusSent, billmodel.BillStatusViewed}).
		Where("bill_due_date < ?", now).
		Where("(bill_total_idr - bill_paid_amount_idr) > 0").
		Pluck("bill_id", &ids).Error; err != nil {
		return 0, err
	}

	marked := 0
	for _, id := range ids {
		res := db.WithContext(ctx).Model(&billmodel.Bill{}).
			Where("bill_id = ?", id).
			Where("bill_status IN ?", []billmodel.BillStatus{billmodel.BillStatusSent, billmodel.BillStatusViewed}).
			Where("bill_due_date < ?", now).
			Where("(bill_total_idr - bill_paid_amount_idr) > 0").
			Updates(map[string]interface{}{
				"bill_status":     billmodel.BillStatusOverdue,
				"bill_updated_at": time.Now(),
			})
		if res.Error != nil {
			log.Printf("[SWEEPER ERROR] Gagal update bill %s: %v", id, res.Error)
			continue
		}
		marked += int(res.RowsAffected)
	}
	return marked, nil
}
