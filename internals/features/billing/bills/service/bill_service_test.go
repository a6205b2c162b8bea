package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "kostku_backend/internals/features/billing/bills/model"
	paymentmodel "kostku_backend/internals/features/billing/payments/model"
	occmodel "kostku_backend/internals/features/occupancy/model"
	occservice "kostku_backend/internals/features/occupancy/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&occmodel.RoomOccupancy{},
		&model.Bill{},
		&paymentmodel.BillPayment{},
	))
	return db
}

// seedRoom: dua penghuni aktif, A jadi perwakilan.
// A masuk 10 hari setelah awal periode (20 hari), B masuk 20 hari setelahnya (10 hari).
func seedRoom(t *testing.T, db *gorm.DB, periodFrom time.Time) (roomID, tenantA, tenantB uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	roomID = uuid.New()
	tenantA = uuid.New()
	tenantB = uuid.New()

	for tenant, offset := range map[uuid.UUID]int{tenantA: 10, tenantB: 20} {
		_, err := occservice.StartOccupancy(ctx, db, occservice.StartOccupancyInput{
			RoomID:      roomID,
			TenantID:    tenant,
			AgreementID: uuid.New(),
			StartDate:   periodFrom.AddDate(0, 0, offset),
		})
		require.NoError(t, err)
	}

	_, err := occservice.SetRepresentative(ctx, db, roomID, tenantA, uuid.New())
	require.NoError(t, err)
	return roomID, tenantA, tenantB
}

func rentItems(amountIDR int64) []model.BillItem {
	return []model.BillItem{
		{Name: "Sewa kamar", Type: model.BillItemTypeRent, AmountIDR: amountIDR, Quantity: 1, UnitPriceIDR: amountIDR},
	}
}

func mustCreateBill(t *testing.T, db *gorm.DB, roomID uuid.UUID, periodFrom time.Time, totalIDR int64) *model.Bill {
	t.Helper()
	b, err := CreateBill(context.Background(), db, CreateBillInput{
		RoomID:          roomID,
		AccommodationID: uuid.New(),
		LandlordID:      uuid.New(),
		Items:           rentItems(totalIDR),
		PeriodFrom:      periodFrom,
		PeriodTo:        periodFrom.AddDate(0, 0, 29),
		DueDate:         periodFrom.AddDate(0, 1, 10),
	})
	require.NoError(t, err)
	return b
}

func fiberCode(t *testing.T, err error) int {
	t.Helper()
	fe, ok := err.(*fiber.Error)
	require.True(t, ok, "expected *fiber.Error, got %T: %v", err, err)
	return fe.Code
}

func TestCreateBillSnapshotAndTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, tenantA, tenantB := seedRoom(t, db, periodFrom)

	b, err := CreateBill(ctx, db, CreateBillInput{
		RoomID:          roomID,
		AccommodationID: uuid.New(),
		LandlordID:      uuid.New(),
		Items: []model.BillItem{
			{Name: "Sewa kamar", Type: model.BillItemTypeRent, AmountIDR: 900_000, Quantity: 1, UnitPriceIDR: 900_000},
			{Name: "Listrik", Type: model.BillItemTypeElectricity, AmountIDR: 100_000, Quantity: 50, UnitPriceIDR: 2_000},
		},
		PeriodFrom: periodFrom,
		PeriodTo:   periodFrom.AddDate(0, 0, 29), // 30 hari inklusif
		DueDate:    time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		TaxIDR:     50_000,
	})
	require.NoError(t, err)

	assert.Equal(t, model.BillStatusDraft, b.BillStatus)
	assert.Equal(t, tenantA, b.BillRepresentativeID)
	assert.EqualValues(t, 1_000_000, b.BillSubtotalIDR)
	assert.EqualValues(t, 1_050_000, b.BillTotalIDR)
	assert.EqualValues(t, 0, b.BillPaidAmountIDR)
	assert.Equal(t, model.BillPaymentStatusUnpaid, b.PaymentStatus())

	snaps, err := b.TenantsSnapshot()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	days := map[uuid.UUID]int{}
	for _, s := range snaps {
		days[s.TenantID] = s.DaysInPeriod
	}
	assert.Equal(t, 20, days[tenantA])
	assert.Equal(t, 10, days[tenantB])

	// hunian berakhir SETELAH bill dibuat → snapshot tidak boleh berubah
	tenants, err := occservice.CurrentTenants(ctx, db, roomID)
	require.NoError(t, err)
	for _, occ := range tenants {
		if occ.RoomOccupancyTenantID == tenantA {
			_, err := occservice.EndOccupancy(ctx, db, occ.RoomOccupancyID, occservice.EndOccupancyInput{
				EndDate:        time.Now(),
				ActorID:        uuid.New(),
				TerminalStatus: occmodel.RoomOccupancyStatusMovedOut,
			})
			require.NoError(t, err)
		}
	}

	reloaded, err := GetBill(ctx, db, b.BillID)
	require.NoError(t, err)
	snaps2, err := reloaded.TenantsSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snaps, snaps2)
	assert.Equal(t, tenantA, reloaded.BillRepresentativeID)
}

func TestCreateBillRequiresRepresentative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roomID := uuid.New()

	// penghuni aktif ada, tapi belum ada perwakilan
	_, err := occservice.StartOccupancy(ctx, db, occservice.StartOccupancyInput{
		RoomID:      roomID,
		TenantID:    uuid.New(),
		AgreementID: uuid.New(),
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = CreateBill(ctx, db, CreateBillInput{
		RoomID:          roomID,
		AccommodationID: uuid.New(),
		LandlordID:      uuid.New(),
		Items:           rentItems(500_000),
		PeriodFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:        time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, fiberCode(t, err))
}

func TestCreateBillValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	base := CreateBillInput{
		RoomID:          roomID,
		AccommodationID: uuid.New(),
		LandlordID:      uuid.New(),
		Items:           rentItems(500_000),
		PeriodFrom:      periodFrom,
		PeriodTo:        periodFrom.AddDate(0, 0, 29),
		DueDate:         periodFrom.AddDate(0, 1, 10),
	}

	noItems := base
	noItems.Items = nil
	_, err := CreateBill(ctx, db, noItems)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	badType := base
	badType.Items = []model.BillItem{{Name: "X", Type: "parkir", AmountIDR: 1000}}
	_, err = CreateBill(ctx, db, badType)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	badPeriod := base
	badPeriod.PeriodTo = periodFrom.AddDate(0, 0, -1)
	_, err = CreateBill(ctx, db, badPeriod)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	negTax := base
	negTax.TaxIDR = -1
	_, err = CreateBill(ctx, db, negTax)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))
}

func TestBillNumberSequence(t *testing.T) {
	db := newTestDB(t)
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	now := time.Now()
	prefix := fmt.Sprintf("BILL%04d%02d", now.Year(), int(now.Month()))

	b1 := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	b2 := mustCreateBill(t, db, roomID, periodFrom, 600_000)

	assert.Equal(t, prefix+"0001", b1.BillNumber)
	assert.Equal(t, prefix+"0002", b2.BillNumber)

	// bill cancelled tetap menghitung sequence — nomor tidak dipakai ulang
	_, err := CancelBill(context.Background(), db, b2.BillID, nil)
	require.NoError(t, err)

	b3 := mustCreateBill(t, db, roomID, periodFrom, 700_000)
	assert.Equal(t, prefix+"0003", b3.BillNumber)
}

func TestMarkSentAndViewed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, tenantA, _ := seedRoom(t, db, periodFrom)

	b := mustCreateBill(t, db, roomID, periodFrom, 500_000)

	// viewed sebelum sent → 409
	_, err := MarkViewed(ctx, db, b.BillID, tenantA)
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))

	sent, err := MarkSent(ctx, db, b.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusSent, sent.BillStatus)
	require.NotNil(t, sent.BillSentAt)

	// idempotent
	_, err = MarkSent(ctx, db, b.BillID)
	require.NoError(t, err)

	viewed, err := MarkViewed(ctx, db, b.BillID, tenantA)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusViewed, viewed.BillStatus)
	require.NotNil(t, viewed.BillViewedBy)
	assert.Equal(t, tenantA, *viewed.BillViewedBy)

	// idempotent
	again, err := MarkViewed(ctx, db, b.BillID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusViewed, again.BillStatus)
}

func TestApplyLateFee(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	b := mustCreateBill(t, db, roomID, periodFrom, 1_000_000)

	updated, err := ApplyLateFee(ctx, db, b.BillID, 50_000)
	require.NoError(t, err)
	assert.EqualValues(t, 50_000, updated.BillLateFeeIDR)
	assert.EqualValues(t, 1_050_000, updated.BillTotalIDR)
	assert.Equal(t, updated.BillSubtotalIDR+updated.BillTaxIDR+updated.BillLateFeeIDR, updated.BillTotalIDR)
	require.NotNil(t, updated.BillLateFeeAppliedAt)

	// denda kedua terakumulasi
	updated, err = ApplyLateFee(ctx, db, b.BillID, 25_000)
	require.NoError(t, err)
	assert.EqualValues(t, 75_000, updated.BillLateFeeIDR)
	assert.EqualValues(t, 1_075_000, updated.BillTotalIDR)

	_, err = ApplyLateFee(ctx, db, b.BillID, 0)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	// bill cancelled menolak denda
	_, err = CancelBill(ctx, db, b.BillID, nil)
	require.NoError(t, err)
	_, err = ApplyLateFee(ctx, db, b.BillID, 10_000)
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestMarkOverdue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	pastDue := time.Now().Add(-48 * time.Hour)

	b := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	require.NoError(t, db.Model(&model.Bill{}).
		Where("bill_id = ?", b.BillID).
		Update("bill_due_date", pastDue).Error)

	// draft tidak pernah jadi overdue — no-op
	res, err := MarkOverdue(ctx, db, b.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusDraft, res.BillStatus)

	_, err = MarkSent(ctx, db, b.BillID)
	require.NoError(t, err)

	res, err = MarkOverdue(ctx, db, b.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusOverdue, res.BillStatus)

	// bill tanpa sisa tagihan tidak boleh ditandai walau lewat jatuh tempo
	b2 := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	_, err = MarkSent(ctx, db, b2.BillID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Bill{}).
		Where("bill_id = ?", b2.BillID).
		Updates(map[string]interface{}{
			"bill_due_date":        pastDue,
			"bill_paid_amount_idr": b2.BillTotalIDR,
		}).Error)

	res, err = MarkOverdue(ctx, db, b2.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusSent, res.BillStatus)

	reloaded, err := GetBill(ctx, db, b2.BillID)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusSent, reloaded.BillStatus)
}

func TestCancelBill(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	b := mustCreateBill(t, db, roomID, periodFrom, 500_000)

	reason := "kamar pindah kepemilikan"
	cancelled, err := CancelBill(ctx, db, b.BillID, &reason)
	require.NoError(t, err)
	assert.Equal(t, model.BillStatusCancelled, cancelled.BillStatus)
	require.NotNil(t, cancelled.BillCancelReason)
	assert.Equal(t, reason, *cancelled.BillCancelReason)

	// idempotent
	_, err = CancelBill(ctx, db, b.BillID, nil)
	require.NoError(t, err)

	// bill paid tidak bisa dibatalkan
	b2 := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	require.NoError(t, db.Model(&model.Bill{}).
		Where("bill_id = ?", b2.BillID).
		Updates(map[string]interface{}{
			"bill_status":          model.BillStatusPaid,
			"bill_paid_amount_idr": b2.BillTotalIDR,
		}).Error)
	_, err = CancelBill(ctx, db, b2.BillID, nil)
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestUpdateItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	b := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	snapsBefore, err := b.TenantsSnapshot()
	require.NoError(t, err)

	updated, err := UpdateItems(ctx, db, b.BillID, []model.BillItem{
		{Name: "Sewa kamar", Type: model.BillItemTypeRent, AmountIDR: 500_000, Quantity: 1, UnitPriceIDR: 500_000},
		{Name: "Air", Type: model.BillItemTypeWater, AmountIDR: 75_000, Quantity: 15, UnitPriceIDR: 5_000},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 575_000, updated.BillSubtotalIDR)
	assert.EqualValues(t, 575_000, updated.BillTotalIDR)

	// snapshot penghuni tidak dihitung ulang
	snapsAfter, err := updated.TenantsSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snapsBefore, snapsAfter)

	// setelah sent, item terkunci
	_, err = MarkSent(ctx, db, b.BillID)
	require.NoError(t, err)
	_, err = UpdateItems(ctx, db, b.BillID, rentItems(100_000))
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestUpdateItemsKeepsTotalAbovePayments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	b := mustCreateBill(t, db, roomID, periodFrom, 1_000_000)

	// pembayaran yang sudah tercatat di ledger memagari total
	require.NoError(t, db.Create(&paymentmodel.BillPayment{
		BillPaymentBillID:    b.BillID,
		BillPaymentPayerID:   uuid.New(),
		BillPaymentAmountIDR: 800_000,
		BillPaymentMethod:    paymentmodel.BillPaymentMethodCash,
		BillPaymentStatus:    paymentmodel.BillPaymentStatusPending,
	}).Error)

	// total baru 500rb < 800rb tercatat → ditolak, paid_amount tidak pernah
	// bisa melewati total lewat jalur ini
	_, err := UpdateItems(ctx, db, b.BillID, rentItems(500_000))
	assert.Equal(t, fiber.StatusUnprocessableEntity, fiberCode(t, err))

	reloaded, err := GetBill(ctx, db, b.BillID)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, reloaded.BillTotalIDR)

	// tepat sebesar pembayaran tercatat masih boleh
	updated, err := UpdateItems(ctx, db, b.BillID, rentItems(800_000))
	require.NoError(t, err)
	assert.EqualValues(t, 800_000, updated.BillTotalIDR)
}

func TestCreateBillRetriesOnNumberConflict(t *testing.T) {
	db := newTestDB(t)
	periodFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	roomID, _, _ := seedRoom(t, db, periodFrom)

	// Sesi lain menulis nomor yang sama persis sebelum insert pertama:
	// attempt pertama kena unique index bill_number, transaksi di-rollback,
	// lalu CreateBill menghitung ulang dari awal.
	hijacked := false
	var rivalErr error
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("bill_number_rival", func(tx *gorm.DB) {
			b, ok := tx.Statement.Dest.(*model.Bill)
			if !ok || hijacked {
				return
			}
			hijacked = true
			rival := *b
			rival.BillID = uuid.Nil
			rivalErr = tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error
		}))

	b := mustCreateBill(t, db, roomID, periodFrom, 500_000)
	require.True(t, hijacked)
	require.NoError(t, rivalErr)

	now := time.Now()
	assert.Equal(t, fmt.Sprintf("BILL%04d%02d0001", now.Year(), int(now.Month())), b.BillNumber)

	var n int64
	require.NoError(t, db.Model(&model.Bill{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestBillNumberSequenceWidth(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	num, err := formatBillNumber(now, 42)
	require.NoError(t, err)
	assert.Equal(t, "BILL2025010042", num)

	num, err = formatBillNumber(now, 9999)
	require.NoError(t, err)
	assert.Equal(t, "BILL2025019999", num)

	// lebar sequence adalah kontrak nomor cetak — lewat 9999 ditolak
	_, err = formatBillNumber(now, 10000)
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestGetBillNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := GetBill(context.Background(), db, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))
}
