// file: internals/features/billing/bills/dto/bill_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "kostku_backend/internals/features/billing/bills/model"
)

////////////////////////////////////////////////////////////////////////////////
// BILLS — DTO
////////////////////////////////////////////////////////////////////////////////

type BillItemDTO struct {
	Name            string   `json:"name" validate:"required"`
	Type            string   `json:"type" validate:"required,oneof=rent water electricity cleaning internet penalty other"`
	AmountIDR       int64    `json:"amount_idr" validate:"min=0"`
	Quantity        int      `json:"quantity" validate:"min=0"`
	UnitPriceIDR    int64    `json:"unit_price_idr" validate:"min=0"`
	PreviousReading *float64 `json:"previous_reading,omitempty"`
	CurrentReading  *float64 `json:"current_reading,omitempty"`
}

type CreateBillRequest struct {
	BillRoomID          uuid.UUID     `json:"bill_room_id" validate:"required"`
	BillAccommodationID uuid.UUID     `json:"bill_accommodation_id" validate:"required"`
	BillLandlordID      uuid.UUID     `json:"bill_landlord_id" validate:"required"`
	BillItems           []BillItemDTO `json:"bill_items" validate:"required,min=1,dive"`
	BillPeriodFrom      time.Time     `json:"bill_period_from" validate:"required"`
	BillPeriodTo        time.Time     `json:"bill_period_to" validate:"required"`
	BillDueDate         time.Time     `json:"bill_due_date" validate:"required"`
	BillTaxIDR          int64         `json:"bill_tax_idr" validate:"min=0"`
}

type MarkViewedRequest struct {
	ViewerID uuid.UUID `json:"viewer_id" validate:"required"`
}

type ApplyLateFeeRequest struct {
	LateFeeIDR int64 `json:"late_fee_idr" validate:"required,gt=0"`
}

type CancelBillRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type UpdateItemsRequest struct {
	BillItems []BillItemDTO `json:"bill_items" validate:"required,min=1,dive"`
}

// Response — remaining_balance & bill_payment_status turunan baca, tidak disimpan.
type BillResponse struct {
	BillID uuid.UUID `json:"bill_id"`

	BillRoomID           uuid.UUID `json:"bill_room_id"`
	BillAccommodationID  uuid.UUID `json:"bill_accommodation_id"`
	BillLandlordID       uuid.UUID `json:"bill_landlord_id"`
	BillRepresentativeID uuid.UUID `json:"bill_representative_id"`

	BillNumber string `json:"bill_number"`

	BillPeriodFrom time.Time `json:"bill_period_from"`
	BillPeriodTo   time.Time `json:"bill_period_to"`

	BillTenantsSnapshot []model.BillTenantSnapshot `json:"bill_tenants_snapshot"`
	BillItems           []model.BillItem           `json:"bill_items"`

	BillSubtotalIDR      int64      `json:"bill_subtotal_idr"`
	BillTaxIDR           int64      `json:"bill_tax_idr"`
	BillLateFeeIDR       int64      `json:"bill_late_fee_idr"`
	BillLateFeeAppliedAt *time.Time `json:"bill_late_fee_applied_at,omitempty"`
	BillTotalIDR         int64      `json:"bill_total_idr"`

	BillDueDate time.Time `json:"bill_due_date"`
	BillStatus  string    `json:"bill_status"`

	BillPaidAmountIDR int64      `json:"bill_paid_amount_idr"`
	BillRemainingIDR  int64      `json:"bill_remaining_idr"`
	BillPaymentStatus string     `json:"bill_payment_status"`
	BillPaidAt        *time.Time `json:"bill_paid_at,omitempty"`

	BillSentAt       *time.Time `json:"bill_sent_at,omitempty"`
	BillViewedAt     *time.Time `json:"bill_viewed_at,omitempty"`
	BillViewedBy     *uuid.UUID `json:"bill_viewed_by,omitempty"`
	BillCancelledAt  *time.Time `json:"bill_cancelled_at,omitempty"`
	BillCancelReason *string    `json:"bill_cancel_reason,omitempty"`

	BillCreatedAt time.Time `json:"bill_created_at"`
	BillUpdatedAt time.Time `json:"bill_updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS
////////////////////////////////////////////////////////////////////////////////

func ToModelItems(in []BillItemDTO) []model.BillItem {
	out := make([]model.BillItem, 0, len(in))
	for _, it := range in {
		out = append(out, model.BillItem{
			Name:            it.Name,
			Type:            it.Type,
			AmountIDR:       it.AmountIDR,
			Quantity:        it.Quantity,
			UnitPriceIDR:    it.UnitPriceIDR,
			PreviousReading: it.PreviousReading,
			CurrentReading:  it.CurrentReading,
		})
	}
	return out
}

// Model -> Response
func ToBillResponse(m model.Bill) BillResponse {
	items, _ := m.Items()
	snaps, _ := m.TenantsSnapshot()
	return BillResponse{
		BillID:               m.BillID,
		BillRoomID:           m.BillRoomID,
		BillAccommodationID:  m.BillAccommodationID,
		BillLandlordID:       m.BillLandlordID,
		BillRepresentativeID: m.BillRepresentativeID,
		BillNumber:           m.BillNumber,
		BillPeriodFrom:       m.BillPeriodFrom,
		BillPeriodTo:         m.BillPeriodTo,
		BillTenantsSnapshot:  snaps,
		BillItems:            items,
		BillSubtotalIDR:      m.BillSubtotalIDR,
		BillTaxIDR:           m.BillTaxIDR,
		BillLateFeeIDR:       m.BillLateFeeIDR,
		BillLateFeeAppliedAt: m.BillLateFeeAppliedAt,
		BillTotalIDR:         m.BillTotalIDR,
		BillDueDate:          m.BillDueDate,
		BillStatus:           string(m.BillStatus),
		BillPaidAmountIDR:    m.BillPaidAmountIDR,
		BillRemainingIDR:     m.RemainingBalance(),
		BillPaymentStatus:    m.PaymentStatus(),
		BillPaidAt:           m.BillPaidAt,
		BillSentAt:           m.BillSentAt,
		BillViewedAt:         m.BillViewedAt,
		BillViewedBy:         m.BillViewedBy,
		BillCancelledAt:      m.BillCancelledAt,
		BillCancelReason:     m.BillCancelReason,
		BillCreatedAt:        m.BillCreatedAt,
		BillUpdatedAt:        m.BillUpdatedAt,
	}
}

func ToBillResponses(list []model.Bill) []BillResponse {
	out := make([]BillResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToBillResponse(m))
	}
	return out
}
