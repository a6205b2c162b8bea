// file: internals/features/occupancy/service/occupancy_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	model "kostku_backend/internals/features/occupancy/model"
)

/* =========================================================
   Occupancy Ledger — hunian kamar & perwakilan penerima tagihan
========================================================= */

type StartOccupancyInput struct {
	RoomID      uuid.UUID
	TenantID    uuid.UUID
	AgreementID uuid.UUID
	StartDate   time.Time
}

// StartOccupancy membuat record hunian baru berstatus active, tanpa flag perwakilan.
func StartOccupancy(ctx context.Context, db *gorm.DB, in StartOccupancyInput) (*model.RoomOccupancy, error) {
	if in.RoomID == uuid.Nil || in.TenantID == uuid.Nil || in.AgreementID == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "room_id, tenant_id, dan agreement_id wajib diisi")
	}
	if in.StartDate.IsZero() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "start_date wajib diisi")
	}

	occ := &model.RoomOccupancy{
		RoomOccupancyRoomID:      in.RoomID,
		RoomOccupancyTenantID:    in.TenantID,
		RoomOccupancyAgreementID: in.AgreementID,
		RoomOccupancyStartDate:   in.StartDate,
		RoomOccupancyStatus:      model.RoomOccupancyStatusActive,
	}
	if err := db.WithContext(ctx).Create(occ).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return occ, nil
}

type EndOccupancyInput struct {
	EndDate        time.Time
	ActorID        uuid.UUID
	Reason         *string
	TerminalStatus model.RoomOccupancyStatus // moved_out | removed
}

// EndOccupancy menutup hunian: set end_date + status terminal (final).
// NotFound jika record tidak ada atau sudah terminal.
func EndOccupancy(ctx context.Context, db *gorm.DB, occupancyID uuid.UUID, in EndOccupancyInput) (*model.RoomOccupancy, error) {
	if !in.TerminalStatus.IsTerminal() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "terminal_status harus moved_out atau removed")
	}
	if in.EndDate.IsZero() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "end_date wajib diisi")
	}

	var occ model.RoomOccupancy
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("room_occupancy_id = ?", occupancyID).
			Take(&occ).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "occupancy tidak ditemukan")
			}
			return err
		}
		if occ.RoomOccupancyStatus.IsTerminal() {
			return fiber.NewError(fiber.StatusNotFound, "occupancy sudah berakhir")
		}

		endDate := in.EndDate
		occ.RoomOccupancyEndDate = &endDate
		occ.RoomOccupancyStatus = in.TerminalStatus
		occ.RoomOccupancyIsRepresentative = false
		occ.RoomOccupancyRepresentativeSetBy = nil
		occ.RoomOccupancyRepresentativeSetAt = nil
		if in.TerminalStatus == model.RoomOccupancyStatusRemoved {
			actor := in.ActorID
			occ.RoomOccupancyRemovedBy = &actor
			occ.RoomOccupancyRemovedReason = in.Reason
		}

		return tx.Model(&model.RoomOccupancy{}).
			Where("room_occupancy_id = ?", occ.RoomOccupancyID).
			Updates(map[string]interface{}{
				"room_occupancy_end_date":              occ.RoomOccupancyEndDate,
				"room_occupancy_status":                occ.RoomOccupancyStatus,
				"room_occupancy_is_representative":     false,
				"room_occupancy_representative_set_by": nil,
				"room_occupancy_representative_set_at": nil,
				"room_occupancy_removed_by":            occ.RoomOccupancyRemovedBy,
				"room_occupancy_removed_reason":        occ.RoomOccupancyRemovedReason,
				"room_occupancy_updated_at":            time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// SetRepresentative memindahkan flag perwakilan kamar secara atomik:
// clear semua record active di kamar, lalu set ke penghuni tujuan.
// Keduanya dalam satu transaksi — pembaca lain tidak pernah melihat 0 atau 2 perwakilan.
func SetRepresentative(ctx context.Context, db *gorm.DB, roomID, tenantID, actorID uuid.UUID) (*model.RoomOccupancy, error) {
	var occ model.RoomOccupancy
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Step 1: clear flag + audit pada seluruh record active di kamar ini
		if err := tx.Model(&model.RoomOccupancy{}).
			Where("room_occupancy_room_id = ? AND room_occupancy_status = ?", roomID, model.RoomOccupancyStatusActive).
			Updates(map[string]interface{}{
				"room_occupancy_is_representative":     false,
				"room_occupancy_representative_set_by": nil,
				"room_occupancy_representative_set_at": nil,
				"room_occupancy_updated_at":            time.Now(),
			}).Error; err != nil {
			return err
		}

		// Step 2: set ke record active milik tenant tujuan — wajib tepat satu baris
		now := time.Now()
		res := tx.Model(&model.RoomOccupancy{}).
			Where("room_occupancy_room_id = ? AND room_occupancy_tenant_id = ? AND room_occupancy_status = ?",
				roomID, tenantID, model.RoomOccupancyStatusActive).
			Updates(map[string]interface{}{
				"room_occupancy_is_representative":     true,
				"room_occupancy_representative_set_by": actorID,
				"room_occupancy_representative_set_at": now,
				"room_occupancy_updated_at":            now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// rollback → flag lama kembali utuh
			return fiber.NewError(fiber.StatusUnprocessableEntity, "tenant tidak punya hunian aktif di kamar ini")
		}

		return tx.
			Where("room_occupancy_room_id = ? AND room_occupancy_tenant_id = ? AND room_occupancy_status = ?",
				roomID, tenantID, model.RoomOccupancyStatusActive).
			Take(&occ).Error
	})
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// CurrentRepresentative mengembalikan record active+representative kamar, atau nil.
func CurrentRepresentative(ctx context.Context, db *gorm.DB, roomID uuid.UUID) (*model.RoomOccupancy, error) {
	var occ model.RoomOccupancy
	err := db.WithContext(ctx).
		Where("room_occupancy_room_id = ? AND room_occupancy_status = ? AND room_occupancy_is_representative = ?",
			roomID, model.RoomOccupancyStatusActive, true).
		Take(&occ).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return &occ, nil
}

// CurrentTenants mengembalikan semua hunian aktif di kamar, urut tanggal masuk.
func CurrentTenants(ctx context.Context, db *gorm.DB, roomID uuid.UUID) ([]model.RoomOccupancy, error) {
	var list []model.RoomOccupancy
	if err := db.WithContext(ctx).
		Where("room_occupancy_room_id = ? AND room_occupancy_status = ?", roomID, model.RoomOccupancyStatusActive).
		Order("room_occupancy_start_date ASC").
		Order("room_occupancy_id ASC").
		Find(&list).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return list, nil
}

// DaysInPeriodByID versi lookup by id dari DaysOccupied.
func DaysInPeriodByID(ctx context.Context, db *gorm.DB, occupancyID uuid.UUID, from, to time.Time) (int, error) {
	var occ model.RoomOccupancy
	if err := db.WithContext(ctx).
		Where("room_occupancy_id = ?", occupancyID).
		Take(&occ).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fiber.NewError(fiber.StatusNotFound, "occupancy tidak ditemukan")
		}
		return 0, err
	}
	return DaysOccupied(&occ, from, to, time.Now()), nil
}

// DaysOccupied menghitung hari menginap dalam periode tagihan:
// panjang irisan [start_date, end_date|now] dengan [from, to],
// dihitung inklusif per tanggal kalender (UTC), di-clamp >= 0.
func DaysOccupied(occ *model.RoomOccupancy, from, to time.Time, now time.Time) int {
	start := truncateDate(occ.RoomOccupancyStartDate)
	end := truncateDate(occ.OccupiedUntil(now))

	pFrom := truncateDate(from)
	pTo := truncateDate(to)

	if start.Before(pFrom) {
		start = pFrom
	}
	if end.After(pTo) {
		end = pTo
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
