// file: internals/features/billing/bills/service/bill_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	model "kostku_backend/internals/features/billing/bills/model"
	paymentmodel "kostku_backend/internals/features/billing/payments/model"
	occservice "kostku_backend/internals/features/occupancy/service"
)

/* =========================================================
   Bill Generator — rakit tagihan dari item + snapshot penghuni
========================================================= */

const billNumberMaxRetry = 3

type CreateBillInput struct {
	RoomID          uuid.UUID
	AccommodationID uuid.UUID
	LandlordID      uuid.UUID
	Items           []model.BillItem
	PeriodFrom      time.Time
	PeriodTo        time.Time
	DueDate         time.Time
	TaxIDR          int64
}

func validateItems(items []model.BillItem) error {
	if len(items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "items minimal 1")
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d].name wajib diisi", i))
		}
		if !model.ValidBillItemType(it.Type) {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d].type tidak dikenal: %s", i, it.Type))
		}
		if it.AmountIDR < 0 || it.UnitPriceIDR < 0 || it.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d] nominal tidak boleh negatif", i))
		}
	}
	return nil
}

// CreateBill:
//  1. resolve perwakilan kamar (gagal 422 jika tidak ada),
//  2. bekukan snapshot penghuni + hari menginap dalam periode,
//  3. hitung subtotal/total,
//  4. alokasikan nomor BILL<YYYY><MM><NNNN> — unik walau create bersamaan,
//  5. persist status draft.
func CreateBill(ctx context.Context, db *gorm.DB, in CreateBillInput) (*model.Bill, error) {
	if in.RoomID == uuid.Nil || in.AccommodationID == uuid.Nil || in.LandlordID == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "room_id, accommodation_id, dan landlord_id wajib diisi")
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if in.PeriodFrom.IsZero() || in.PeriodTo.IsZero() || in.PeriodTo.Before(in.PeriodFrom) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "billing_period tidak valid")
	}
	if in.DueDate.IsZero() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "due_date wajib diisi")
	}
	if in.TaxIDR < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "tax tidak boleh negatif")
	}

	now := time.Now()
	var bill *model.Bill

	// Retry khusus bentrok nomor: dua CreateBill serentak bisa menghitung
	// sequence yang sama; unique index bill_number menolak salah satunya,
	// lalu kita hitung ulang dari awal transaksi.
	var lastErr error
	for attempt := 0; attempt < billNumberMaxRetry; attempt++ {
		bill = nil
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rep, err := occservice.CurrentRepresentative(ctx, tx, in.RoomID)
			if err != nil {
				return err
			}
			if rep == nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "kamar belum punya perwakilan aktif")
			}

			tenants, err := occservice.CurrentTenants(ctx, tx, in.RoomID)
			if err != nil {
				return err
			}
			snaps := make([]model.BillTenantSnapshot, 0, len(tenants))
			for _, t := range tenants {
				snaps = append(snaps, model.BillTenantSnapshot{
					TenantID:     t.RoomOccupancyTenantID,
					OccupancyID:  t.RoomOccupancyID,
					DaysInPeriod: occservice.DaysOccupied(&t, in.PeriodFrom, in.PeriodTo, now),
				})
			}

			number, err := allocateBillNumber(tx, now)
			if err != nil {
				return err
			}

			b := &model.Bill{
				BillRoomID:           in.RoomID,
				BillAccommodationID:  in.AccommodationID,
				BillLandlordID:       in.LandlordID,
				BillRepresentativeID: rep.RoomOccupancyTenantID,
				BillNumber:           number,
				BillPeriodFrom:       in.PeriodFrom,
				BillPeriodTo:         in.PeriodTo,
				BillTaxIDR:           in.TaxIDR,
				BillDueDate:          in.DueDate,
				BillStatus:           model.BillStatusDraft,
			}
			if err := b.SetItems(in.Items); err != nil {
				return err
			}
			if err := b.SetTenantsSnapshot(snaps); err != nil {
				return err
			}
			if err := b.RecalculateTotals(); err != nil {
				return err
			}

			if err := tx.Create(b).Error; err != nil {
				return err
			}
			bill = b
			return nil
		})
		if err == nil {
			return bill, nil
		}
		if isDuplicateKeyErr(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fiber.NewError(fiber.StatusConflict, "gagal alokasi nomor tagihan: "+lastErr.Error())
}

// allocateBillNumber: sequence = 1 + jumlah bill yang sudah dibuat bulan ini.
// Dihitung Unscoped (bill cancelled/terhapus tetap dihitung — nomor tidak
// pernah dipakai ulang). Format: kontrak eksternal, jangan diubah.
func allocateBillNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("BILL%04d%02d", now.Year(), int(now.Month()))
	var count int64
	if err := tx.Unscoped().Model(&model.Bill{}).
		Where("bill_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return formatBillNumber(now, count+1)
}

// Sequence selalu 4 digit — nomor yang sudah tercetak di invoice tidak boleh
// berubah lebar, jadi bulan yang melewati 9999 ditolak alih-alih melebar.
const billNumberMaxSeq = 9999

func formatBillNumber(now time.Time, seq int64) (string, error) {
	if seq > billNumberMaxSeq {
		return "", fiber.NewError(fiber.StatusConflict, "sequence nomor tagihan bulan ini sudah penuh")
	}
	return fmt.Sprintf("BILL%04d%02d%04d", now.Year(), int(now.Month()), seq), nil
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

/* =========================================================
   Reads
========================================================= */

func GetBill(ctx context.Context, db *gorm.DB, billID uuid.UUID) (*model.Bill, error) {
	var b model.Bill
	if err := db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Take(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "bill tidak ditemukan")
		}
		return nil, err
	}
	return &b, nil
}

/* =========================================================
   Transitions
========================================================= */

// MarkSent: draft → sent. Idempotent jika sudah sent.
func MarkSent(ctx context.Context, db *gorm.DB, billID uuid.UUID) (*model.Bill, error) {
	var b *model.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.BillStatus == model.BillStatusSent {
			return nil
		}
		if b.BillStatus != model.BillStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "bill hanya bisa dikirim dari status draft")
		}
		now := time.Now()
		b.BillStatus = model.BillStatusSent
		b.BillSentAt = &now
		return tx.Model(&model.Bill{}).
			Where("bill_id = ?", billID).
			Updates(map[string]interface{}{
				"bill_status":     model.BillStatusSent,
				"bill_sent_at":    now,
				"bill_updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// MarkViewed: sent → viewed, catat siapa & kapan. Idempotent jika sudah viewed.
func MarkViewed(ctx context.Context, db *gorm.DB, billID, viewerID uuid.UUID) (*model.Bill, error) {
	var b *model.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.BillStatus == model.BillStatusViewed {
			return nil
		}
		if b.BillStatus != model.BillStatusSent {
			return fiber.NewError(fiber.StatusConflict, "bill belum dikirim atau sudah final")
		}
		now := time.Now()
		b.BillStatus = model.BillStatusViewed
		b.BillViewedAt = &now
		b.BillViewedBy = &viewerID
		return tx.Model(&model.Bill{}).
			Where("bill_id = ?", billID).
			Updates(map[string]interface{}{
				"bill_status":     model.BillStatusViewed,
				"bill_viewed_at":  now,
				"bill_viewed_by":  viewerID,
				"bill_updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ApplyLateFee menambah denda keterlambatan lalu hitung ulang total.
// Ditolak untuk bill paid/cancelled.
func ApplyLateFee(ctx context.Context, db *gorm.DB, billID uuid.UUID, amountIDR int64) (*model.Bill, error) {
	if amountIDR <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "late_fee harus > 0")
	}
	var b *model.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.IsClosed() {
			return fiber.NewError(fiber.StatusConflict, "bill sudah paid/cancelled, denda tidak bisa ditambah")
		}
		now := time.Now()
		b.BillLateFeeIDR += amountIDR
		b.BillLateFeeAppliedAt = &now
		if err := b.RecalculateTotals(); err != nil {
			return err
		}
		return tx.Model(&model.Bill{}).
			Where("bill_id = ?", billID).
			Updates(map[string]interface{}{
				"bill_late_fee_idr":        b.BillLateFeeIDR,
				"bill_late_fee_applied_at": now,
				"bill_total_idr":           b.BillTotalIDR,
				"bill_updated_at":          now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// MarkOverdue: transisi ke overdue HANYA jika sent/viewed + lewat jatuh tempo +
// masih ada sisa tagihan. Kondisi tidak terpenuhi = no-op, bukan error.
// Guard diulang di WHERE update supaya bill yang lunas di sela-sela
// pengecekan tidak pernah salah tandai.
func MarkOverdue(ctx context.Context, db *gorm.DB, billID uuid.UUID) (*model.Bill, error) {
	b, err := GetBill(ctx, db, billID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := db.WithContext(ctx).Model(&model.Bill{}).
		Where("bill_id = ?", billID).
		Where("bill_status IN ?", []model.BillStatus{model.BillStatusSent, model.BillStatusViewed}).
		Where("bill_due_date < ?", now).
		Where("(bill_total_idr - bill_paid_amount_idr) > 0").
		Updates(map[string]interface{}{
			"bill_status":     model.BillStatusOverdue,
			"bill_updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		b.BillStatus = model.BillStatusOverdue
	}
	return b, nil
}

// CancelBill membatalkan bill yang belum paid. Idempotent jika sudah cancelled.
func CancelBill(ctx context.Context, db *gorm.DB, billID uuid.UUID, reason *string) (*model.Bill, error) {
	var b *model.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.BillStatus == model.BillStatusCancelled {
			return nil
		}
		if b.BillStatus == model.BillStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "bill sudah lunas, tidak bisa dibatalkan")
		}
		now := time.Now()
		b.BillStatus = model.BillStatusCancelled
		b.BillCancelledAt = &now
		b.BillCancelReason = reason
		return tx.Model(&model.Bill{}).
			Where("bill_id = ?", billID).
			Updates(map[string]interface{}{
				"bill_status":        model.BillStatusCancelled,
				"bill_cancelled_at":  now,
				"bill_cancel_reason": reason,
				"bill_updated_at":    now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateItems mengganti item pada bill draft, lalu RecalculateTotals.
// Snapshot penghuni TIDAK dihitung ulang.
func UpdateItems(ctx context.Context, db *gorm.DB, billID uuid.UUID, items []model.BillItem) (*model.Bill, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	var b *model.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.BillStatus != model.BillStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "item hanya bisa diubah saat draft")
		}
		if err := b.SetItems(items); err != nil {
			return err
		}
		if err := b.RecalculateTotals(); err != nil {
			return err
		}

		// Total baru tidak boleh turun di bawah pembayaran yang sudah
		// tercatat utk bill ini (pending ikut dihitung, selaras dengan
		// reservasi saldo di RecordPayment) — kalau tidak, reconcile bisa
		// mendorong paid_amount melewati total.
		var reservedSum int64
		if err := tx.Model(&paymentmodel.BillPayment{}).
			Where("bill_payment_bill_id = ? AND bill_payment_status IN ?", billID,
				[]string{paymentmodel.BillPaymentStatusPending, paymentmodel.BillPaymentStatusCompleted}).
			Select("COALESCE(SUM(bill_payment_amount_idr), 0)").
			Scan(&reservedSum).Error; err != nil {
			return err
		}
		if b.BillTotalIDR < reservedSum {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "total baru lebih kecil dari pembayaran yang sudah tercatat")
		}

		now := time.Now()
		return tx.Model(&model.Bill{}).
			Where("bill_id = ?", billID).
			Updates(map[string]interface{}{
				"bill_items":        b.BillItems,
				"bill_subtotal_idr": b.BillSubtotalIDR,
				"bill_total_idr":    b.BillTotalIDR,
				"bill_updated_at":   now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
