// file: internals/features/billing/payments/service/payment_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	billmodel "kostku_backend/internals/features/billing/bills/model"
	model "kostku_backend/internals/features/billing/payments/model"
)

/* =========================================================
   Payment Ledger — catat & selesaikan pembayaran per bill
========================================================= */

type RecordPaymentInput struct {
	BillID          uuid.UUID
	PayerID         uuid.UUID
	AmountIDR       int64
	Method          string
	ReferenceNumber *string
	ReceivedBy      *uuid.UUID
	BankTransfer    datatypes.JSON
}

// RecordPayment membuat pembayaran pending. Nominal wajib > 0 dan tidak boleh
// melebihi sisa tagihan dikurangi pembayaran pending lain (pending ikut
// memesan saldo — dua pembayaran 700rb + 400rb atas tagihan 1jt ditolak
// walau yang pertama belum completed).
func RecordPayment(ctx context.Context, db *gorm.DB, in RecordPaymentInput) (*model.BillPayment, error) {
	if in.AmountIDR <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "amount harus > 0")
	}
	if !model.ValidBillPaymentMethod(in.Method) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "payment_method tidak dikenal: "+in.Method)
	}
	if in.PayerID == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "payer_id wajib diisi")
	}

	var payment *model.BillPayment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bill billmodel.Bill
		if err := tx.
			Where("bill_id = ?", in.BillID).
			Take(&bill).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "bill tidak ditemukan")
			}
			return err
		}
		if bill.BillStatus == billmodel.BillStatusCancelled {
			return fiber.NewError(fiber.StatusConflict, "bill sudah dibatalkan")
		}
		// Total bill draft masih bisa berubah lewat UpdateItems — pembayaran
		// baru diterima setelah bill dikirim, supaya paid_amount tidak pernah
		// bisa melewati total.
		if bill.BillStatus == billmodel.BillStatusDraft {
			return fiber.NewError(fiber.StatusConflict, "bill masih draft, belum bisa menerima pembayaran")
		}

		var pendingSum int64
		if err := tx.Model(&model.BillPayment{}).
			Where("bill_payment_bill_id = ? AND bill_payment_status = ?", in.BillID, model.BillPaymentStatusPending).
			Select("COALESCE(SUM(bill_payment_amount_idr), 0)").
			Scan(&pendingSum).Error; err != nil {
			return err
		}

		available := bill.RemainingBalance() - pendingSum
		if in.AmountIDR > available {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "amount melebihi sisa tagihan")
		}

		p := &model.BillPayment{
			BillPaymentBillID:          in.BillID,
			BillPaymentPayerID:         in.PayerID,
			BillPaymentAmountIDR:       in.AmountIDR,
			BillPaymentMethod:          in.Method,
			BillPaymentStatus:          model.BillPaymentStatusPending,
			BillPaymentReferenceNumber: in.ReferenceNumber,
			BillPaymentReceivedBy:      in.ReceivedBy,
			BillPaymentBankTransfer:    in.BankTransfer,
			BillPaymentIsPartial:       in.AmountIDR < bill.RemainingBalance(),
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		// Metode gateway: mintakan Snap token ke midtrans (best effort —
		// kalau client belum dikonfigurasi, payment tetap pending manual).
		if p.IsGateway() && MidtransReady() {
			token, redirectURL, err := GenerateSnapToken(p, bill.BillNumber)
			if err != nil {
				log.Printf("[PAYMENT] snap token gagal utk %s: %v", p.BillPaymentID, err)
			} else {
				p.BillPaymentSnapToken = &token
				p.BillPaymentCheckoutURL = &redirectURL
				if err := tx.Model(&model.BillPayment{}).
					Where("bill_payment_id = ?", p.BillPaymentID).
					Updates(map[string]interface{}{
						"bill_payment_snap_token":   token,
						"bill_payment_checkout_url": redirectURL,
					}).Error; err != nil {
					return err
				}
			}
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CompletePayment: pending → completed, set paid_at, lalu reconcile bill
// dalam transaksi yang sama.
func CompletePayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID) (*model.BillPayment, error) {
	var payment model.BillPayment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("bill_payment_id = ?", paymentID).
			Take(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payment tidak ditemukan")
			}
			return err
		}
		if !payment.IsPending() {
			return fiber.NewError(fiber.StatusConflict, "payment bukan pending, transisi ditolak")
		}

		now := time.Now()
		payment.BillPaymentStatus = model.BillPaymentStatusCompleted
		payment.BillPaymentPaidAt = &now
		if err := tx.Model(&model.BillPayment{}).
			Where("bill_payment_id = ?", paymentID).
			Updates(map[string]interface{}{
				"bill_payment_status":     model.BillPaymentStatusCompleted,
				"bill_payment_paid_at":    now,
				"bill_payment_updated_at": now,
			}).Error; err != nil {
			return err
		}

		return reconcileBillTx(tx, payment.BillPaymentBillID)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FailPayment: pending → failed (mis. gateway decline), alasan masuk notes.
func FailPayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID, reason string) (*model.BillPayment, error) {
	var payment model.BillPayment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("bill_payment_id = ?", paymentID).
			Take(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payment tidak ditemukan")
			}
			return err
		}
		if !payment.IsPending() {
			return fiber.NewError(fiber.StatusConflict, "payment bukan pending, transisi ditolak")
		}

		now := time.Now()
		payment.BillPaymentStatus = model.BillPaymentStatusFailed
		payment.BillPaymentNotes = append(payment.BillPaymentNotes, reason)
		return tx.Model(&model.BillPayment{}).
			Where("bill_payment_id = ?", paymentID).
			Updates(map[string]interface{}{
				"bill_payment_status":     model.BillPaymentStatusFailed,
				"bill_payment_notes":      payment.BillPaymentNotes,
				"bill_payment_updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// RefundPayment: completed → refunded, alasan ditambahkan ke notes, lalu
// reconcile bill dalam transaksi yang sama (bill paid bisa turun lagi ke sent).
func RefundPayment(ctx context.Context, db *gorm.DB, paymentID uuid.UUID, reason string) (*model.BillPayment, error) {
	var payment model.BillPayment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("bill_payment_id = ?", paymentID).
			Take(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payment tidak ditemukan")
			}
			return err
		}
		if !payment.IsCompleted() {
			return fiber.NewError(fiber.StatusConflict, "hanya payment completed yang bisa direfund")
		}

		now := time.Now()
		payment.BillPaymentStatus = model.BillPaymentStatusRefunded
		payment.BillPaymentNotes = append(payment.BillPaymentNotes, reason)
		if err := tx.Model(&model.BillPayment{}).
			Where("bill_payment_id = ?", paymentID).
			Updates(map[string]interface{}{
				"bill_payment_status":     model.BillPaymentStatusRefunded,
				"bill_payment_notes":      payment.BillPaymentNotes,
				"bill_payment_updated_at": now,
			}).Error; err != nil {
			return err
		}

		return reconcileBillTx(tx, payment.BillPaymentBillID)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

/* =========================================================
   Reconcile — agregasi ulang penuh, bukan delta
========================================================= */

// ReconcileBill menghitung ulang paid_amount dari NOL: SUM seluruh payment
// completed utk bill tsb. Sengaja bukan counter inkremental — trigger dobel
// atau out-of-order akan konvergen ke nilai yang sama (self-healing).
// Kalau gagal, pemanggil mengulang dari awal; tidak ada partial apply.
func ReconcileBill(ctx context.Context, db *gorm.DB, billID uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reconcileBillTx(tx, billID)
	})
}

func reconcileBillTx(tx *gorm.DB, billID uuid.UUID) error {
	var bill billmodel.Bill
	if err := tx.
		Where("bill_id = ?", billID).
		Take(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "bill tidak ditemukan")
		}
		return err
	}

	var paidSum int64
	if err := tx.Model(&model.BillPayment{}).
		Where("bill_payment_bill_id = ? AND bill_payment_status = ?", billID, model.BillPaymentStatusCompleted).
		Select("COALESCE(SUM(bill_payment_amount_idr), 0)").
		Scan(&paidSum).Error; err != nil {
		return err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"bill_paid_amount_idr": paidSum,
		"bill_updated_at":      now,
	}

	switch {
	case paidSum >= bill.BillTotalIDR && bill.BillStatus != billmodel.BillStatusCancelled:
		// lunas — set paid sekali saja, paid_at tidak digeser-geser
		updates["bill_status"] = billmodel.BillStatusPaid
		if bill.BillPaidAt == nil {
			updates["bill_paid_at"] = now
		}
	case paidSum < bill.BillTotalIDR && bill.BillStatus == billmodel.BillStatusPaid:
		// refund menurunkan agregat di bawah total → bill terbuka lagi
		updates["bill_status"] = billmodel.BillStatusSent
		updates["bill_paid_at"] = nil
	}

	return tx.Model(&billmodel.Bill{}).
		Where("bill_id = ?", billID).
		Updates(updates).Error
}

/* =========================================================
   Reads — terbaru dulu
========================================================= */

func FindByBill(ctx context.Context, db *gorm.DB, billID uuid.UUID) ([]model.BillPayment, error) {
	var list []model.BillPayment
	if err := db.WithContext(ctx).
		Where("bill_payment_bill_id = ?", billID).
		Order("bill_payment_created_at DESC").
		Order("bill_payment_id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func FindByPayer(ctx context.Context, db *gorm.DB, payerID uuid.UUID, status string) ([]model.BillPayment, error) {
	q := db.WithContext(ctx).
		Where("bill_payment_payer_id = ?", payerID)
	if status != "" {
		q = q.Where("bill_payment_status = ?", status)
	}
	var list []model.BillPayment
	if err := q.
		Order("bill_payment_created_at DESC").
		Order("bill_payment_id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
