// file: internals/features/billing/payments/model/bill_payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	BillPaymentStatusPending   = "pending"
	BillPaymentStatusCompleted = "completed"
	BillPaymentStatusFailed    = "failed"
	BillPaymentStatusRefunded  = "refunded"
)

const (
	BillPaymentMethodCash         = "cash"
	BillPaymentMethodBankTransfer = "bank_transfer"
	BillPaymentMethodGateway      = "gateway"
	BillPaymentMethodQRIS         = "qris"
	BillPaymentMethodOther        = "other"
)

func ValidBillPaymentMethod(m string) bool {
	switch m {
	case BillPaymentMethodCash, BillPaymentMethodBankTransfer,
		BillPaymentMethodGateway, BillPaymentMethodQRIS, BillPaymentMethodOther:
		return true
	default:
		return false
	}
}

/* ===================== Model ===================== */

type BillPayment struct {
	BillPaymentID uuid.UUID `gorm:"column:bill_payment_id;type:uuid;primaryKey" json:"bill_payment_id"`

	// FK → bills(bill_id)
	BillPaymentBillID uuid.UUID `gorm:"column:bill_payment_bill_id;type:uuid;not null;index:ix_bill_payment_bill" json:"bill_payment_bill_id"`

	// FK → users(id) — pembayar
	BillPaymentPayerID uuid.UUID `gorm:"column:bill_payment_payer_id;type:uuid;not null;index:ix_bill_payment_payer" json:"bill_payment_payer_id"`

	// Nominal — rupiah bulat, wajib > 0
	BillPaymentAmountIDR int64 `gorm:"column:bill_payment_amount_idr;not null;check:bill_payment_amount_idr > 0" json:"bill_payment_amount_idr"`

	// Metode & status
	BillPaymentMethod string `gorm:"column:bill_payment_method;type:varchar(20);not null;default:'cash'" json:"bill_payment_method"`
	BillPaymentStatus string `gorm:"column:bill_payment_status;type:varchar(20);not null;default:'pending';index:ix_bill_payment_status" json:"bill_payment_status"`

	// Referensi eksternal (gateway / bukti manual)
	BillPaymentExternalID      *string `gorm:"column:bill_payment_external_id" json:"bill_payment_external_id,omitempty"` // transaction id di PSP
	BillPaymentReferenceNumber *string `gorm:"column:bill_payment_reference_number;type:varchar(60)" json:"bill_payment_reference_number,omitempty"`

	// Khusus gateway (midtrans snap)
	BillPaymentSnapToken   *string `gorm:"column:bill_payment_snap_token" json:"bill_payment_snap_token,omitempty"`
	BillPaymentCheckoutURL *string `gorm:"column:bill_payment_checkout_url" json:"bill_payment_checkout_url,omitempty"`

	// Khusus transfer bank: {bank_name, account_number, account_holder, transfer_date}
	BillPaymentBankTransfer datatypes.JSON `gorm:"column:bill_payment_bank_transfer;type:jsonb" json:"bill_payment_bank_transfer,omitempty"`

	// Partial flag (ditentukan saat record, relatif ke sisa tagihan waktu itu)
	BillPaymentIsPartial bool `gorm:"column:bill_payment_is_partial;not null;default:false" json:"bill_payment_is_partial"`

	// Penerima (utk metode manual: cash diterima siapa)
	BillPaymentReceivedBy *uuid.UUID `gorm:"column:bill_payment_received_by;type:uuid" json:"bill_payment_received_by,omitempty"`

	// Catatan append-only (alasan refund / gagal ditambahkan di sini)
	BillPaymentNotes pq.StringArray `gorm:"column:bill_payment_notes;type:text[]" json:"bill_payment_notes,omitempty"`

	// Timestamps penting
	BillPaymentPaidAt *time.Time `gorm:"column:bill_payment_paid_at" json:"bill_payment_paid_at,omitempty"`

	// Base timestamps
	BillPaymentCreatedAt time.Time      `gorm:"column:bill_payment_created_at;not null;index:ix_bill_payment_created_at" json:"bill_payment_created_at"`
	BillPaymentUpdatedAt time.Time      `gorm:"column:bill_payment_updated_at;not null" json:"bill_payment_updated_at"`
	BillPaymentDeletedAt gorm.DeletedAt `gorm:"column:bill_payment_deleted_at;index" json:"-"`
}

func (BillPayment) TableName() string { return "bill_payments" }

/* ===================== Helpers ===================== */

func (p *BillPayment) IsPending() bool {
	return p.BillPaymentStatus == BillPaymentStatusPending
}

func (p *BillPayment) IsCompleted() bool {
	return p.BillPaymentStatus == BillPaymentStatusCompleted
}

func (p *BillPayment) IsGateway() bool {
	return p.BillPaymentMethod == BillPaymentMethodGateway
}

/* ===================== Hooks ===================== */

func (m *BillPayment) BeforeCreate(tx *gorm.DB) (err error) {
	if m.BillPaymentID == uuid.Nil {
		m.BillPaymentID = uuid.New()
	}
	now := time.Now()
	if m.BillPaymentCreatedAt.IsZero() {
		m.BillPaymentCreatedAt = now
	}
	m.BillPaymentUpdatedAt = now
	return nil
}

func (m *BillPayment) BeforeUpdate(tx *gorm.DB) (err error) {
	m.BillPaymentUpdatedAt = time.Now()
	return nil
}
