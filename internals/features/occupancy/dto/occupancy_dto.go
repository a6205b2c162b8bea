// file: internals/features/occupancy/dto/occupancy_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "kostku_backend/internals/features/occupancy/model"
)

////////////////////////////////////////////////////////////////////////////////
// ROOM OCCUPANCIES — DTO
////////////////////////////////////////////////////////////////////////////////

type StartOccupancyRequest struct {
	RoomOccupancyRoomID      uuid.UUID `json:"room_occupancy_room_id" validate:"required"`
	RoomOccupancyTenantID    uuid.UUID `json:"room_occupancy_tenant_id" validate:"required"`
	RoomOccupancyAgreementID uuid.UUID `json:"room_occupancy_agreement_id" validate:"required"`
	RoomOccupancyStartDate   time.Time `json:"room_occupancy_start_date" validate:"required"`
}

type EndOccupancyRequest struct {
	RoomOccupancyEndDate time.Time `json:"room_occupancy_end_date" validate:"required"`
	ActorID              uuid.UUID `json:"actor_id" validate:"required"`
	Reason               *string   `json:"reason,omitempty"`
	TerminalStatus       string    `json:"terminal_status" validate:"required,oneof=moved_out removed"`
}

type SetRepresentativeRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	ActorID  uuid.UUID `json:"actor_id" validate:"required"`
}

// Response
type OccupancyResponse struct {
	RoomOccupancyID          uuid.UUID `json:"room_occupancy_id"`
	RoomOccupancyRoomID      uuid.UUID `json:"room_occupancy_room_id"`
	RoomOccupancyTenantID    uuid.UUID `json:"room_occupancy_tenant_id"`
	RoomOccupancyAgreementID uuid.UUID `json:"room_occupancy_agreement_id"`

	RoomOccupancyStartDate time.Time  `json:"room_occupancy_start_date"`
	RoomOccupancyEndDate   *time.Time `json:"room_occupancy_end_date,omitempty"`

	RoomOccupancyIsRepresentative    bool       `json:"room_occupancy_is_representative"`
	RoomOccupancyRepresentativeSetBy *uuid.UUID `json:"room_occupancy_representative_set_by,omitempty"`
	RoomOccupancyRepresentativeSetAt *time.Time `json:"room_occupancy_representative_set_at,omitempty"`

	RoomOccupancyStatus        string     `json:"room_occupancy_status"`
	RoomOccupancyRemovedBy     *uuid.UUID `json:"room_occupancy_removed_by,omitempty"`
	RoomOccupancyRemovedReason *string    `json:"room_occupancy_removed_reason,omitempty"`

	RoomOccupancyCreatedAt time.Time `json:"room_occupancy_created_at"`
	RoomOccupancyUpdatedAt time.Time `json:"room_occupancy_updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model -> Response
////////////////////////////////////////////////////////////////////////////////

func ToOccupancyResponse(m model.RoomOccupancy) OccupancyResponse {
	return OccupancyResponse{
		RoomOccupancyID:                  m.RoomOccupancyID,
		RoomOccupancyRoomID:              m.RoomOccupancyRoomID,
		RoomOccupancyTenantID:            m.RoomOccupancyTenantID,
		RoomOccupancyAgreementID:         m.RoomOccupancyAgreementID,
		RoomOccupancyStartDate:           m.RoomOccupancyStartDate,
		RoomOccupancyEndDate:             m.RoomOccupancyEndDate,
		RoomOccupancyIsRepresentative:    m.RoomOccupancyIsRepresentative,
		RoomOccupancyRepresentativeSetBy: m.RoomOccupancyRepresentativeSetBy,
		RoomOccupancyRepresentativeSetAt: m.RoomOccupancyRepresentativeSetAt,
		RoomOccupancyStatus:              string(m.RoomOccupancyStatus),
		RoomOccupancyRemovedBy:           m.RoomOccupancyRemovedBy,
		RoomOccupancyRemovedReason:       m.RoomOccupancyRemovedReason,
		RoomOccupancyCreatedAt:           m.RoomOccupancyCreatedAt,
		RoomOccupancyUpdatedAt:           m.RoomOccupancyUpdatedAt,
	}
}

func ToOccupancyResponses(list []model.RoomOccupancy) []OccupancyResponse {
	out := make([]OccupancyResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToOccupancyResponse(m))
	}
	return out
}
