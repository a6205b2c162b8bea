// file: internals/features/billing/bills/model/bill_model.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

type BillStatus string

const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusSent      BillStatus = "sent"
	BillStatusViewed    BillStatus = "viewed"
	BillStatusPaid      BillStatus = "paid"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

// Payment status turunan (tidak pernah disimpan, dihitung saat dibaca)
const (
	BillPaymentStatusUnpaid        = "unpaid"
	BillPaymentStatusPartiallyPaid = "partially_paid"
	BillPaymentStatusFullyPaid     = "fully_paid"
)

// Jenis item tagihan
const (
	BillItemTypeRent        = "rent"
	BillItemTypeWater       = "water"
	BillItemTypeElectricity = "electricity"
	BillItemTypeCleaning    = "cleaning"
	BillItemTypeInternet    = "internet"
	BillItemTypePenalty     = "penalty"
	BillItemTypeOther       = "other"
)

func ValidBillItemType(t string) bool {
	switch t {
	case BillItemTypeRent, BillItemTypeWater, BillItemTypeElectricity,
		BillItemTypeCleaning, BillItemTypeInternet, BillItemTypePenalty, BillItemTypeOther:
		return true
	default:
		return false
	}
}

/* ===================== Embedded JSON shapes ===================== */

// BillItem disimpan sebagai array JSON pada kolom bill_items.
// previous/current reading hanya relevan utk item bermeteran (air/listrik).
type BillItem struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	AmountIDR       int64    `json:"amount_idr"`
	Quantity        int      `json:"quantity"`
	UnitPriceIDR    int64    `json:"unit_price_idr"`
	PreviousReading *float64 `json:"previous_reading,omitempty"`
	CurrentReading  *float64 `json:"current_reading,omitempty"`
}

// BillTenantSnapshot: penghuni kamar saat tagihan dibuat, dibekukan permanen.
// Perubahan hunian setelah bill dibuat TIDAK pernah mengubah snapshot ini.
type BillTenantSnapshot struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	OccupancyID  uuid.UUID `json:"occupancy_id"`
	DaysInPeriod int       `json:"days_in_period"`
}

/* ===================== Model ===================== */

type Bill struct {
	// PK
	BillID uuid.UUID `gorm:"column:bill_id;type:uuid;primaryKey" json:"bill_id"`

	// FK → rooms / accommodations / users (eksternal, hanya ID)
	BillRoomID          uuid.UUID `gorm:"column:bill_room_id;type:uuid;not null;index:ix_bill_room" json:"bill_room_id"`
	BillAccommodationID uuid.UUID `gorm:"column:bill_accommodation_id;type:uuid;not null" json:"bill_accommodation_id"`
	BillLandlordID      uuid.UUID `gorm:"column:bill_landlord_id;type:uuid;not null;index:ix_bill_landlord" json:"bill_landlord_id"`

	// Snapshot perwakilan saat bill dibuat
	BillRepresentativeID uuid.UUID `gorm:"column:bill_representative_id;type:uuid;not null" json:"bill_representative_id"`

	// Nomor tagihan: BILL<YYYY><MM><NNNN> — kontrak eksternal, muncul di invoice cetak.
	BillNumber string `gorm:"column:bill_number;type:varchar(20);not null;uniqueIndex:uq_bill_number" json:"bill_number"`

	// Periode tagihan
	BillPeriodFrom time.Time `gorm:"column:bill_period_from;not null" json:"bill_period_from"`
	BillPeriodTo   time.Time `gorm:"column:bill_period_to;not null" json:"bill_period_to"`

	// Snapshot penghuni (array BillTenantSnapshot) — dibekukan saat create
	BillTenantsSnapshot datatypes.JSON `gorm:"column:bill_tenants_snapshot;type:jsonb" json:"bill_tenants_snapshot"`

	// Item tagihan (array BillItem)
	BillItems datatypes.JSON `gorm:"column:bill_items;type:jsonb" json:"bill_items"`

	// Nominal — selalu rupiah bulat.
	// Invariant: bill_total_idr = bill_subtotal_idr + bill_tax_idr + bill_late_fee_idr
	BillSubtotalIDR      int64      `gorm:"column:bill_subtotal_idr;not null;check:bill_subtotal_idr >= 0" json:"bill_subtotal_idr"`
	BillTaxIDR           int64      `gorm:"column:bill_tax_idr;not null;default:0;check:bill_tax_idr >= 0" json:"bill_tax_idr"`
	BillLateFeeIDR       int64      `gorm:"column:bill_late_fee_idr;not null;default:0;check:bill_late_fee_idr >= 0" json:"bill_late_fee_idr"`
	BillLateFeeAppliedAt *time.Time `gorm:"column:bill_late_fee_applied_at" json:"bill_late_fee_applied_at,omitempty"`
	BillTotalIDR         int64      `gorm:"column:bill_total_idr;not null;check:bill_total_idr >= 0" json:"bill_total_idr"`

	// Jatuh tempo & status
	BillDueDate time.Time  `gorm:"column:bill_due_date;not null;index:ix_bill_due_date" json:"bill_due_date"`
	BillStatus  BillStatus `gorm:"column:bill_status;type:varchar(20);not null;default:'draft';index:ix_bill_status" json:"bill_status"`

	// Agregat pembayaran — turunan, ditulis ulang penuh oleh ReconcileBill.
	// Invariant: 0 <= bill_paid_amount_idr <= bill_total_idr
	BillPaidAmountIDR int64      `gorm:"column:bill_paid_amount_idr;not null;default:0;check:bill_paid_amount_idr >= 0" json:"bill_paid_amount_idr"`
	BillPaidAt        *time.Time `gorm:"column:bill_paid_at" json:"bill_paid_at,omitempty"`

	// Jejak transisi
	BillSentAt       *time.Time `gorm:"column:bill_sent_at" json:"bill_sent_at,omitempty"`
	BillViewedAt     *time.Time `gorm:"column:bill_viewed_at" json:"bill_viewed_at,omitempty"`
	BillViewedBy     *uuid.UUID `gorm:"column:bill_viewed_by;type:uuid" json:"bill_viewed_by,omitempty"`
	BillCancelledAt  *time.Time `gorm:"column:bill_cancelled_at" json:"bill_cancelled_at,omitempty"`
	BillCancelReason *string    `gorm:"column:bill_cancel_reason" json:"bill_cancel_reason,omitempty"`

	// Base timestamps
	BillCreatedAt time.Time      `gorm:"column:bill_created_at;not null;index:ix_bill_created_at" json:"bill_created_at"`
	BillUpdatedAt time.Time      `gorm:"column:bill_updated_at;not null" json:"bill_updated_at"`
	BillDeletedAt gorm.DeletedAt `gorm:"column:bill_deleted_at;index" json:"-"`
}

func (Bill) TableName() string { return "bills" }

/* ===================== Helpers ===================== */

// RemainingBalance: total dikurangi yang sudah terbayar. Turunan murni.
func (b *Bill) RemainingBalance() int64 {
	return b.BillTotalIDR - b.BillPaidAmountIDR
}

// PaymentStatus: unpaid | partially_paid | fully_paid. Turunan murni.
func (b *Bill) PaymentStatus() string {
	switch {
	case b.BillPaidAmountIDR <= 0:
		return BillPaymentStatusUnpaid
	case b.BillPaidAmountIDR < b.BillTotalIDR:
		return BillPaymentStatusPartiallyPaid
	default:
		return BillPaymentStatusFullyPaid
	}
}

func (b *Bill) IsClosed() bool {
	return b.BillStatus == BillStatusPaid || b.BillStatus == BillStatusCancelled
}

// RecalculateTotals: subtotal = Σ item.amount; total = subtotal + tax + late fee.
// Wajib dipanggil setiap kali bill_items / tax / late fee berubah, sebelum persist.
func (b *Bill) RecalculateTotals() error {
	items, err := b.Items()
	if err != nil {
		return err
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.AmountIDR
	}
	b.BillSubtotalIDR = subtotal
	b.BillTotalIDR = subtotal + b.BillTaxIDR + b.BillLateFeeIDR
	return nil
}

func (b *Bill) Items() ([]BillItem, error) {
	if len(b.BillItems) == 0 {
		return nil, nil
	}
	var items []BillItem
	if err := json.Unmarshal(b.BillItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (b *Bill) SetItems(items []BillItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	b.BillItems = datatypes.JSON(raw)
	return nil
}

func (b *Bill) TenantsSnapshot() ([]BillTenantSnapshot, error) {
	if len(b.BillTenantsSnapshot) == 0 {
		return nil, nil
	}
	var snaps []BillTenantSnapshot
	if err := json.Unmarshal(b.BillTenantsSnapshot, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (b *Bill) SetTenantsSnapshot(snaps []BillTenantSnapshot) error {
	raw, err := json.Marshal(snaps)
	if err != nil {
		return err
	}
	b.BillTenantsSnapshot = datatypes.JSON(raw)
	return nil
}

/* ===================== Hooks ===================== */

func (m *Bill) BeforeCreate(tx *gorm.DB) (err error) {
	if m.BillID == uuid.Nil {
		m.BillID = uuid.New()
	}
	now := time.Now()
	if m.BillCreatedAt.IsZero() {
		m.BillCreatedAt = now
	}
	m.BillUpdatedAt = now
	return nil
}

func (m *Bill) BeforeUpdate(tx *gorm.DB) (err error) {
	m.BillUpdatedAt = time.Now()
	return nil
}
