// file: internals/features/billing/payments/dto/payment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	model "kostku_backend/internals/features/billing/payments/model"
)

////////////////////////////////////////////////////////////////////////////////
// BILL PAYMENTS — DTO
////////////////////////////////////////////////////////////////////////////////

type RecordPaymentRequest struct {
	BillPaymentBillID          uuid.UUID      `json:"bill_payment_bill_id" validate:"required"`
	BillPaymentPayerID         uuid.UUID      `json:"bill_payment_payer_id" validate:"required"`
	BillPaymentAmountIDR       int64          `json:"bill_payment_amount_idr" validate:"required,gt=0"`
	BillPaymentMethod          string         `json:"bill_payment_method" validate:"required,oneof=cash bank_transfer gateway qris other"`
	BillPaymentReferenceNumber *string        `json:"bill_payment_reference_number,omitempty"`
	BillPaymentReceivedBy      *uuid.UUID     `json:"bill_payment_received_by,omitempty"`
	BillPaymentBankTransfer    datatypes.JSON `json:"bill_payment_bank_transfer,omitempty"`
}

type RefundPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Response
type PaymentResponse struct {
	BillPaymentID      uuid.UUID `json:"bill_payment_id"`
	BillPaymentBillID  uuid.UUID `json:"bill_payment_bill_id"`
	BillPaymentPayerID uuid.UUID `json:"bill_payment_payer_id"`

	BillPaymentAmountIDR int64  `json:"bill_payment_amount_idr"`
	BillPaymentMethod    string `json:"bill_payment_method"`
	BillPaymentStatus    string `json:"bill_payment_status"`

	BillPaymentExternalID      *string `json:"bill_payment_external_id,omitempty"`
	BillPaymentReferenceNumber *string `json:"bill_payment_reference_number,omitempty"`
	BillPaymentSnapToken       *string `json:"bill_payment_snap_token,omitempty"`
	BillPaymentCheckoutURL     *string `json:"bill_payment_checkout_url,omitempty"`

	BillPaymentBankTransfer datatypes.JSON `json:"bill_payment_bank_transfer,omitempty"`

	BillPaymentIsPartial  bool       `json:"bill_payment_is_partial"`
	BillPaymentReceivedBy *uuid.UUID `json:"bill_payment_received_by,omitempty"`
	BillPaymentNotes      []string   `json:"bill_payment_notes,omitempty"`

	BillPaymentPaidAt    *time.Time `json:"bill_payment_paid_at,omitempty"`
	BillPaymentCreatedAt time.Time  `json:"bill_payment_created_at"`
	BillPaymentUpdatedAt time.Time  `json:"bill_payment_updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model -> Response
////////////////////////////////////////////////////////////////////////////////

func ToPaymentResponse(m model.BillPayment) PaymentResponse {
	return PaymentResponse{
		BillPaymentID:              m.BillPaymentID,
		BillPaymentBillID:          m.BillPaymentBillID,
		BillPaymentPayerID:         m.BillPaymentPayerID,
		BillPaymentAmountIDR:       m.BillPaymentAmountIDR,
		BillPaymentMethod:          m.BillPaymentMethod,
		BillPaymentStatus:          m.BillPaymentStatus,
		BillPaymentExternalID:      m.BillPaymentExternalID,
		BillPaymentReferenceNumber: m.BillPaymentReferenceNumber,
		BillPaymentSnapToken:       m.BillPaymentSnapToken,
		BillPaymentCheckoutURL:     m.BillPaymentCheckoutURL,
		BillPaymentBankTransfer:    m.BillPaymentBankTransfer,
		BillPaymentIsPartial:       m.BillPaymentIsPartial,
		BillPaymentReceivedBy:      m.BillPaymentReceivedBy,
		BillPaymentNotes:           []string(m.BillPaymentNotes),
		BillPaymentPaidAt:          m.BillPaymentPaidAt,
		BillPaymentCreatedAt:       m.BillPaymentCreatedAt,
		BillPaymentUpdatedAt:       m.BillPaymentUpdatedAt,
	}
}

func ToPaymentResponses(list []model.BillPayment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToPaymentResponse(m))
	}
	return out
}
