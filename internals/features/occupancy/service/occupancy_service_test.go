package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "kostku_backend/internals/features/occupancy/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// satu koneksi supaya :memory: konsisten antar transaksi
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.RoomOccupancy{}))
	return db
}

func mustStart(t *testing.T, db *gorm.DB, roomID, tenantID uuid.UUID, start time.Time) *model.RoomOccupancy {
	t.Helper()
	occ, err := StartOccupancy(context.Background(), db, StartOccupancyInput{
		RoomID:      roomID,
		TenantID:    tenantID,
		AgreementID: uuid.New(),
		StartDate:   start,
	})
	require.NoError(t, err)
	return occ
}

func fiberCode(t *testing.T, err error) int {
	t.Helper()
	fe, ok := err.(*fiber.Error)
	require.True(t, ok, "expected *fiber.Error, got %T: %v", err, err)
	return fe.Code
}

func TestStartOccupancy(t *testing.T) {
	db := newTestDB(t)
	roomID := uuid.New()

	occ := mustStart(t, db, roomID, uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, model.RoomOccupancyStatusActive, occ.RoomOccupancyStatus)
	assert.False(t, occ.RoomOccupancyIsRepresentative)
	assert.Nil(t, occ.RoomOccupancyEndDate)

	_, err := StartOccupancy(context.Background(), db, StartOccupancyInput{})
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))
}

func TestEndOccupancy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roomID := uuid.New()
	actor := uuid.New()

	occ := mustStart(t, db, roomID, uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	reason := "melanggar aturan"
	ended, err := EndOccupancy(ctx, db, occ.RoomOccupancyID, EndOccupancyInput{
		EndDate:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ActorID:        actor,
		Reason:         &reason,
		TerminalStatus: model.RoomOccupancyStatusRemoved,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupancyStatusRemoved, ended.RoomOccupancyStatus)
	require.NotNil(t, ended.RoomOccupancyEndDate)
	require.NotNil(t, ended.RoomOccupancyRemovedBy)
	assert.Equal(t, actor, *ended.RoomOccupancyRemovedBy)

	// status terminal bersifat final
	_, err = EndOccupancy(ctx, db, occ.RoomOccupancyID, EndOccupancyInput{
		EndDate:        time.Now(),
		ActorID:        actor,
		TerminalStatus: model.RoomOccupancyStatusMovedOut,
	})
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))

	// id tidak dikenal
	_, err = EndOccupancy(ctx, db, uuid.New(), EndOccupancyInput{
		EndDate:        time.Now(),
		ActorID:        actor,
		TerminalStatus: model.RoomOccupancyStatusMovedOut,
	})
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))

	// status non-terminal ditolak
	_, err = EndOccupancy(ctx, db, occ.RoomOccupancyID, EndOccupancyInput{
		EndDate:        time.Now(),
		ActorID:        actor,
		TerminalStatus: model.RoomOccupancyStatusActive,
	})
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))
}

func countRepresentatives(t *testing.T, db *gorm.DB, roomID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.RoomOccupancy{}).
		Where("room_occupancy_room_id = ? AND room_occupancy_status = ? AND room_occupancy_is_representative = ?",
			roomID, model.RoomOccupancyStatusActive, true).
		Count(&n).Error)
	return n
}

func TestSetRepresentative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roomID := uuid.New()
	actor := uuid.New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tenantA := uuid.New()
	tenantB := uuid.New()
	mustStart(t, db, roomID, tenantA, start)
	mustStart(t, db, roomID, tenantB, start)

	// set ke A
	occA, err := SetRepresentative(ctx, db, roomID, tenantA, actor)
	require.NoError(t, err)
	assert.True(t, occA.RoomOccupancyIsRepresentative)
	require.NotNil(t, occA.RoomOccupancyRepresentativeSetBy)
	assert.Equal(t, actor, *occA.RoomOccupancyRepresentativeSetBy)
	assert.EqualValues(t, 1, countRepresentatives(t, db, roomID))

	// pindah ke B — A harus bersih, tetap tepat satu perwakilan
	occB, err := SetRepresentative(ctx, db, roomID, tenantB, actor)
	require.NoError(t, err)
	assert.True(t, occB.RoomOccupancyIsRepresentative)
	assert.EqualValues(t, 1, countRepresentatives(t, db, roomID))

	rep, err := CurrentRepresentative(ctx, db, roomID)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, tenantB, rep.RoomOccupancyTenantID)

	// tenant tanpa hunian aktif → rollback, perwakilan lama utuh
	_, err = SetRepresentative(ctx, db, roomID, uuid.New(), actor)
	assert.Equal(t, fiber.StatusUnprocessableEntity, fiberCode(t, err))
	assert.EqualValues(t, 1, countRepresentatives(t, db, roomID))

	rep, err = CurrentRepresentative(ctx, db, roomID)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, tenantB, rep.RoomOccupancyTenantID)
}

func TestCurrentRepresentativeNone(t *testing.T) {
	db := newTestDB(t)

	rep, err := CurrentRepresentative(context.Background(), db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rep)
}

func TestCurrentTenants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roomID := uuid.New()

	a := mustStart(t, db, roomID, uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	b := mustStart(t, db, roomID, uuid.New(), time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	// hunian yang sudah berakhir tidak ikut
	_, err := EndOccupancy(ctx, db, b.RoomOccupancyID, EndOccupancyInput{
		EndDate:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ActorID:        uuid.New(),
		TerminalStatus: model.RoomOccupancyStatusMovedOut,
	})
	require.NoError(t, err)

	list, err := CurrentTenants(ctx, db, roomID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.RoomOccupancyID, list[0].RoomOccupancyID)
}

func TestDaysOccupied(t *testing.T) {
	now := time.Date(2025, 1, 30, 12, 0, 0, 0, time.UTC)
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	periodTo := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	ptr := func(tt time.Time) *time.Time { return &tt }

	cases := []struct {
		name  string
		start time.Time
		end   *time.Time
		want  int
	}{
		{"menghuni sepanjang periode", date(2024, 12, 1), nil, 30},
		{"masuk di tengah periode (20 hari)", date(2025, 1, 11), nil, 20},
		{"masuk 10 hari terakhir", date(2025, 1, 21), nil, 10},
		{"keluar di tengah periode", date(2024, 12, 1), ptr(date(2025, 1, 10)), 10},
		{"keluar sebelum periode", date(2024, 11, 1), ptr(date(2024, 12, 15)), 0},
		{"masuk setelah periode", date(2025, 2, 5), nil, 0},
		{"satu hari", date(2025, 1, 15), ptr(date(2025, 1, 15)), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			occ := &model.RoomOccupancy{
				RoomOccupancyStartDate: tc.start,
				RoomOccupancyEndDate:   tc.end,
			}
			assert.Equal(t, tc.want, DaysOccupied(occ, periodFrom, periodTo, now))
		})
	}
}

func TestDaysInPeriodByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	occ := mustStart(t, db, uuid.New(), uuid.New(), time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC))

	days, err := DaysInPeriodByID(ctx, db, occ.RoomOccupancyID,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 20, days)

	_, err = DaysInPeriodByID(ctx, db, uuid.New(), time.Now(), time.Now())
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))
}
