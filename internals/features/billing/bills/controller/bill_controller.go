// file: internals/features/billing/bills/controller/bill_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "kostku_backend/internals/features/billing/bills/dto"
	model "kostku_backend/internals/features/billing/bills/model"
	service "kostku_backend/internals/features/billing/bills/service"
	helper "kostku_backend/internals/helpers"
)

type BillHandler struct {
	DB *gorm.DB
}

/* =========================
   Create (POST /bills)
========================= */

func (h *BillHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateBillRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}

	bill, err := service.CreateBill(c.UserContext(), h.DB, service.CreateBillInput{
		RoomID:          req.BillRoomID,
		AccommodationID: req.BillAccommodationID,
		LandlordID:      req.BillLandlordID,
		Items:           dto.ToModelItems(req.BillItems),
		PeriodFrom:      req.BillPeriodFrom,
		PeriodTo:        req.BillPeriodTo,
		DueDate:         req.BillDueDate,
		TaxIDR:          req.BillTaxIDR,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Tagihan dibuat", dto.ToBillResponse(*bill))
}

/* =========================
   Detail (GET /bills/:id)
========================= */

func (h *BillHandler) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	bill, err := service.GetBill(c.UserContext(), h.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToBillResponse(*bill))
}

/* =========================
   List (GET /bills)
========================= */

func (h *BillHandler) List(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 20, 200)

	q := h.DB.WithContext(c.UserContext()).Model(&model.Bill{})

	if v := strings.TrimSpace(c.Query("room_id")); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			q = q.Where("bill_room_id = ?", id)
		}
	}
	if v := strings.TrimSpace(c.Query("landlord_id")); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			q = q.Where("bill_landlord_id = ?", id)
		}
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" { // draft|sent|viewed|paid|overdue|cancelled
		q = q.Where("bill_status = ?", v)
	}
	// period_from/period_to: dukung RFC3339 & YYYY-MM-DD
	if v := strings.TrimSpace(c.Query("period_from")); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q = q.Where("bill_period_from >= ?", t)
		} else if t, err := time.Parse("2006-01-02", v); err == nil {
			q = q.Where("bill_period_from >= ?", t)
		}
	}
	if v := strings.TrimSpace(c.Query("period_to")); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q = q.Where("bill_period_to <= ?", t)
		} else if t, err := time.Parse("2006-01-02", v); err == nil {
			q = q.Where("bill_period_to < ?", t.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	var list []model.Bill
	if err := q.
		Order("bill_created_at DESC").
		Order("bill_id DESC").
		Offset(pg.Offset).Limit(pg.Limit).
		Find(&list).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.JsonList(c, "ok", dto.ToBillResponses(list),
		helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

/* =========================
   Transitions
========================= */

// Send (POST /bills/:id/send)
func (h *BillHandler) Send(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	bill, err := service.MarkSent(c.UserContext(), h.DB, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Tagihan dikirim", dto.ToBillResponse(*bill))
}

// View (POST /bills/:id/view)
func (h *BillHandler) View(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.MarkViewedRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}
	bill, err := service.MarkViewed(c.UserContext(), h.DB, id, req.ViewerID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Tagihan ditandai dilihat", dto.ToBillResponse(*bill))
}

// LateFee (POST /bills/:id/late-fee)
func (h *BillHandler) LateFee(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ApplyLateFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}
	bill, err := service.ApplyLateFee(c.UserContext(), h.DB, id, req.LateFeeIDR)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Denda ditambahkan", dto.ToBillResponse(*bill))
}

// Cancel (POST /bills/:id/cancel)
func (h *BillHandler) Cancel(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CancelBillRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	bill, err := service.CancelBill(c.UserContext(), h.DB, id, req.Reason)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Tagihan dibatalkan", dto.ToBillResponse(*bill))
}

// UpdateItems (PATCH /bills/:id/items) — hanya saat draft
func (h *BillHandler) UpdateItems(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}
	bill, err := service.UpdateItems(c.UserContext(), h.DB, id, dto.ToModelItems(req.BillItems))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Item tagihan diperbarui", dto.ToBillResponse(*bill))
}
