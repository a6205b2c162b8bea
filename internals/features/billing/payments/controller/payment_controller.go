// file: internals/features/billing/payments/controller/payment_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dto "kostku_backend/internals/features/billing/payments/dto"
	model "kostku_backend/internals/features/billing/payments/model"
	service "kostku_backend/internals/features/billing/payments/service"
	helper "kostku_backend/internals/helpers"
)

type PaymentHandler struct {
	DB *gorm.DB
}

/* =========================
   Record (POST /payments)
========================= */

func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}

	p, err := service.RecordPayment(c.UserContext(), h.DB, service.RecordPaymentInput{
		BillID:          req.BillPaymentBillID,
		PayerID:         req.BillPaymentPayerID,
		AmountIDR:       req.BillPaymentAmountIDR,
		Method:          req.BillPaymentMethod,
		ReferenceNumber: req.BillPaymentReferenceNumber,
		ReceivedBy:      req.BillPaymentReceivedBy,
		BankTransfer:    req.BillPaymentBankTransfer,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Pembayaran dicatat", dto.ToPaymentResponse(*p))
}

/* =========================
   Transitions
========================= */

// Complete (POST /payments/:id/complete)
func (h *PaymentHandler) Complete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := service.CompletePayment(c.UserContext(), h.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Pembayaran selesai", dto.ToPaymentResponse(*p))
}

// Fail (POST /payments/:id/fail)
func (h *PaymentHandler) Fail(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.FailPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}
	p, err := service.FailPayment(c.UserContext(), h.DB, id, req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Pembayaran ditandai gagal", dto.ToPaymentResponse(*p))
}

// Refund (POST /payments/:id/refund)
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.RefundPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}
	p, err := service.RefundPayment(c.UserContext(), h.DB, id, req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Pembayaran direfund", dto.ToPaymentResponse(*p))
}

/* =========================
   Reads — terbaru dulu
========================= */

// ListByBill (GET /bills/:id/payments)
func (h *PaymentHandler) ListByBill(c *fiber.Ctx) error {
	billID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	list, err := service.FindByBill(c.UserContext(), h.DB, billID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPaymentResponses(list))
}

// ListByPayer (GET /payers/:payer_id/payments?status=)
func (h *PaymentHandler) ListByPayer(c *fiber.Ctx) error {
	payerID, err := helper.ParseUUIDParam(c, "payer_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		switch status {
		case model.BillPaymentStatusPending, model.BillPaymentStatusCompleted,
			model.BillPaymentStatusFailed, model.BillPaymentStatusRefunded:
		default:
			return helper.JsonError(c, fiber.StatusBadRequest, "status tidak dikenal: "+status)
		}
	}

	list, err := service.FindByPayer(c.UserContext(), h.DB, payerID, status)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPaymentResponses(list))
}
