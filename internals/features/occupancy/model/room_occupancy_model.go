// file: internals/features/occupancy/model/room_occupancy_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =========================================================
// ENUM — status hunian kamar
// =========================================================

type RoomOccupancyStatus string

const (
	RoomOccupancyStatusActive   RoomOccupancyStatus = "active"
	RoomOccupancyStatusMovedOut RoomOccupancyStatus = "moved_out"
	RoomOccupancyStatusRemoved  RoomOccupancyStatus = "removed"
)

// IsTerminal: moved_out & removed bersifat final, tidak bisa aktif lagi.
func (s RoomOccupancyStatus) IsTerminal() bool {
	return s == RoomOccupancyStatusMovedOut || s == RoomOccupancyStatusRemoved
}

func (s RoomOccupancyStatus) Valid() bool {
	switch s {
	case RoomOccupancyStatusActive, RoomOccupancyStatusMovedOut, RoomOccupancyStatusRemoved:
		return true
	default:
		return false
	}
}

// =========================================================
// MODEL
// =========================================================

type RoomOccupancy struct {
	// PK
	RoomOccupancyID uuid.UUID `gorm:"column:room_occupancy_id;type:uuid;primaryKey" json:"room_occupancy_id"`

	// FK → rooms / users / tenancy_agreements (katalog & identity eksternal, hanya ID)
	RoomOccupancyRoomID      uuid.UUID `gorm:"column:room_occupancy_room_id;type:uuid;not null;index:ix_room_occupancy_room" json:"room_occupancy_room_id"`
	RoomOccupancyTenantID    uuid.UUID `gorm:"column:room_occupancy_tenant_id;type:uuid;not null;index:ix_room_occupancy_tenant" json:"room_occupancy_tenant_id"`
	RoomOccupancyAgreementID uuid.UUID `gorm:"column:room_occupancy_agreement_id;type:uuid;not null" json:"room_occupancy_agreement_id"`

	// Periode tinggal (end_date NULL = masih menghuni)
	RoomOccupancyStartDate time.Time  `gorm:"column:room_occupancy_start_date;not null" json:"room_occupancy_start_date"`
	RoomOccupancyEndDate   *time.Time `gorm:"column:room_occupancy_end_date" json:"room_occupancy_end_date,omitempty"`

	// Perwakilan kamar (penerima tagihan) — maksimal 1 per kamar utk status active.
	// Dijaga oleh transaksi SetRepresentative + partial unique index di migrasi.
	RoomOccupancyIsRepresentative    bool       `gorm:"column:room_occupancy_is_representative;not null;default:false" json:"room_occupancy_is_representative"`
	RoomOccupancyRepresentativeSetBy *uuid.UUID `gorm:"column:room_occupancy_representative_set_by;type:uuid" json:"room_occupancy_representative_set_by,omitempty"`
	RoomOccupancyRepresentativeSetAt *time.Time `gorm:"column:room_occupancy_representative_set_at" json:"room_occupancy_representative_set_at,omitempty"`

	// Status & audit keluar/pencabutan
	RoomOccupancyStatus        RoomOccupancyStatus `gorm:"column:room_occupancy_status;type:varchar(20);not null;default:'active';index:ix_room_occupancy_status" json:"room_occupancy_status"`
	RoomOccupancyRemovedBy     *uuid.UUID          `gorm:"column:room_occupancy_removed_by;type:uuid" json:"room_occupancy_removed_by,omitempty"`
	RoomOccupancyRemovedReason *string             `gorm:"column:room_occupancy_removed_reason" json:"room_occupancy_removed_reason,omitempty"`

	// Timestamps (eksplisit)
	RoomOccupancyCreatedAt time.Time      `gorm:"column:room_occupancy_created_at;not null" json:"room_occupancy_created_at"`
	RoomOccupancyUpdatedAt time.Time      `gorm:"column:room_occupancy_updated_at;not null" json:"room_occupancy_updated_at"`
	RoomOccupancyDeletedAt gorm.DeletedAt `gorm:"column:room_occupancy_deleted_at;index" json:"-"`
}

func (RoomOccupancy) TableName() string {
	return "room_occupancies"
}

// =========================================================
// HELPERS
// =========================================================

func (m *RoomOccupancy) IsActive() bool {
	return m.RoomOccupancyStatus == RoomOccupancyStatusActive
}

// OccupiedUntil: end_date jika sudah keluar, selain itu "sekarang".
func (m *RoomOccupancy) OccupiedUntil(now time.Time) time.Time {
	if m.RoomOccupancyEndDate != nil {
		return *m.RoomOccupancyEndDate
	}
	return now
}

// =========================================================
// HOOKS — id & timestamps eksplisit
// =========================================================

func (m *RoomOccupancy) BeforeCreate(tx *gorm.DB) (err error) {
	if m.RoomOccupancyID == uuid.Nil {
		m.RoomOccupancyID = uuid.New()
	}
	now := time.Now()
	if m.RoomOccupancyCreatedAt.IsZero() {
		m.RoomOccupancyCreatedAt = now
	}
	m.RoomOccupancyUpdatedAt = now
	return nil
}

func (m *RoomOccupancy) BeforeUpdate(tx *gorm.DB) (err error) {
	m.RoomOccupancyUpdatedAt = time.Now()
	return nil
}
