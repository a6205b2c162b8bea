// file: internals/features/occupancy/controller/occupancy_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "kostku_backend/internals/features/occupancy/dto"
	model "kostku_backend/internals/features/occupancy/model"
	service "kostku_backend/internals/features/occupancy/service"
	helper "kostku_backend/internals/helpers"
)

type OccupancyHandler struct {
	DB *gorm.DB
}

/* =========================
   Create (POST /occupancies)
========================= */

func (h *OccupancyHandler) Create(c *fiber.Ctx) error {
	var req dto.StartOccupancyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}

	occ, err := service.StartOccupancy(c.UserContext(), h.DB, service.StartOccupancyInput{
		RoomID:      req.RoomOccupancyRoomID,
		TenantID:    req.RoomOccupancyTenantID,
		AgreementID: req.RoomOccupancyAgreementID,
		StartDate:   req.RoomOccupancyStartDate,
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Hunian dimulai", dto.ToOccupancyResponse(*occ))
}

/* =========================
   End (POST /occupancies/:id/end)
========================= */

func (h *OccupancyHandler) End(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.EndOccupancyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}

	occ, err := service.EndOccupancy(c.UserContext(), h.DB, id, service.EndOccupancyInput{
		EndDate:        req.RoomOccupancyEndDate,
		ActorID:        req.ActorID,
		Reason:         req.Reason,
		TerminalStatus: model.RoomOccupancyStatus(req.TerminalStatus),
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Hunian diakhiri", dto.ToOccupancyResponse(*occ))
}

/* =========================
   SetRepresentative (POST /rooms/:room_id/representative)
========================= */

func (h *OccupancyHandler) SetRepresentative(c *fiber.Ctx) error {
	roomID, err := helper.ParseUUIDParam(c, "room_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.SetRepresentativeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &req); err != nil {
		return err
	}

	occ, err := service.SetRepresentative(c.UserContext(), h.DB, roomID, req.TenantID, req.ActorID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Perwakilan kamar diperbarui", dto.ToOccupancyResponse(*occ))
}

/* =========================
   GetRepresentative (GET /rooms/:room_id/representative)
========================= */

func (h *OccupancyHandler) GetRepresentative(c *fiber.Ctx) error {
	roomID, err := helper.ParseUUIDParam(c, "room_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	occ, err := service.CurrentRepresentative(c.UserContext(), h.DB, roomID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if occ == nil {
		return helper.JsonOK(c, "Kamar belum punya perwakilan", nil)
	}
	return helper.JsonOK(c, "ok", dto.ToOccupancyResponse(*occ))
}

/* =========================
   ListTenants (GET /rooms/:room_id/tenants)
========================= */

func (h *OccupancyHandler) ListTenants(c *fiber.Ctx) error {
	roomID, err := helper.ParseUUIDParam(c, "room_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	list, err := service.CurrentTenants(c.UserContext(), h.DB, roomID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToOccupancyResponses(list))
}

/* =========================
   List (GET /occupancies)
========================= */

func (h *OccupancyHandler) List(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 20, 200)

	q := h.DB.WithContext(c.UserContext()).Model(&model.RoomOccupancy{})

	if v := strings.TrimSpace(c.Query("room_id")); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			q = q.Where("room_occupancy_room_id = ?", id)
		}
	}
	if v := strings.TrimSpace(c.Query("tenant_id")); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			q = q.Where("room_occupancy_tenant_id = ?", id)
		}
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" { // active|moved_out|removed
		q = q.Where("room_occupancy_status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	var list []model.RoomOccupancy
	if err := q.
		Order("room_occupancy_start_date DESC").
		Order("room_occupancy_id DESC").
		Offset(pg.Offset).Limit(pg.Limit).
		Find(&list).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.JsonList(c, "ok", dto.ToOccupancyResponses(list),
		helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}
