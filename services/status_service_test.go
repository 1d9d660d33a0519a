package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinelli-collision/bodyshop-api/models"
)

func TestCreateRepairOrder(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)

	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	assert.NotEmpty(t, ro.ID)
	assert.Equal(t, 1, ro.RONumber)
	assert.Equal(t, models.StatusIntake, ro.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, ro.PaymentStatus)
	assert.Equal(t, models.RevenuePeriodCurrent, ro.RevenuePeriod)
	assert.NotEmpty(t, ro.BillingMonth)

	// The creation audit entry has no from_status
	require.Len(t, ro.StatusLogs, 1)
	assert.Nil(t, ro.StatusLogs[0].FromStatus)
	assert.Equal(t, models.StatusIntake, ro.StatusLogs[0].ToStatus)
	require.NotNil(t, ro.StatusLogs[0].ChangedBy)
	assert.Equal(t, advisor.ID, *ro.StatusLogs[0].ChangedBy)

	// RO numbers are per shop
	second := mustCreateRO(t, shop, customer, vehicle, &advisor)
	assert.Equal(t, 2, second.RONumber)
}

func TestCreateRepairOrderUnknownCustomer(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, _, vehicle := seedShop(t, db)

	_, err := CreateRepairOrder(CreateRepairOrderInput{
		ShopID:     shop.ID,
		CustomerID: 999,
		VehicleID:  vehicle.ID,
	}, &advisor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionStatusWritesAuditEntry(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	updated, err := TransitionStatus(ro.ID, shop.ID, models.StatusEstimate, &advisor, "estimate written")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEstimate, updated.Status)

	require.Len(t, updated.StatusLogs, 2)
	entry := updated.StatusLogs[1]
	require.NotNil(t, entry.FromStatus)
	assert.Equal(t, models.StatusIntake, *entry.FromStatus)
	assert.Equal(t, models.StatusEstimate, entry.ToStatus)
	assert.Equal(t, "estimate written", entry.Note)
}

func TestTransitionStatusUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	_, err := TransitionStatus(ro.ID, shop.ID, "warehouse", &advisor, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Nothing was written
	var count int64
	db.Model(&models.JobStatusLog{}).Where("ro_id = ?", ro.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTransitionStatusTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	otherShop := models.Shop{Name: "Other Shop"}
	require.NoError(t, db.Create(&otherShop).Error)

	_, err := TransitionStatus(ro.ID, otherShop.ID, models.StatusEstimate, nil, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTransitionStatusPaymentGate(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	// Unpaid order cannot close
	_, err := TransitionStatus(ro.ID, shop.ID, models.StatusClosed, &advisor, "")
	assert.ErrorIs(t, err, ErrPaymentRequired)

	var current models.RepairOrder
	require.NoError(t, db.First(&current, "id = ?", ro.ID).Error)
	assert.Equal(t, models.StatusIntake, current.Status, "failed close must not move the order")

	// Paid order closes
	require.NoError(t, db.Model(&models.RepairOrder{}).Where("id = ?", ro.ID).Updates(map[string]interface{}{
		"payment_status":   models.PaymentStatusSucceeded,
		"payment_received": true,
	}).Error)

	updated, err := TransitionStatus(ro.ID, shop.ID, models.StatusClosed, &advisor, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, updated.Status)
}

func TestTransitionStatusStampsDelivery(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	updated, err := TransitionStatus(ro.ID, shop.ID, models.StatusDelivery, &advisor, "")
	require.NoError(t, err)
	assert.NotNil(t, updated.ActualDelivery)
}

func TestTransitionStatusNotifiesCustomer(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	notifier := NewMockNotifier()
	dispatcher := InitNotificationDispatcher(notifier)

	_, err := TransitionStatus(ro.ID, shop.ID, models.StatusDelivery, &advisor, "")
	require.NoError(t, err)

	drainDispatcher(t, dispatcher)

	customerMessages := notifier.SentTo(customer.Phone)
	require.Len(t, customerMessages, 1)
	assert.Contains(t, customerMessages[0], "ready for pickup")

	// Delivery is a staff-notify stage
	ownerMessages := notifier.SentTo("owner@shop.test")
	require.Len(t, ownerMessages, 1)
	assert.Contains(t, ownerMessages[0], "delivery")
}

func TestUpdateFinancialsRecomputesProfit(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	parts := decimal.NewFromInt(1000)
	labor := decimal.NewFromInt(2000)
	waived := decimal.NewFromInt(500)

	updated, err := UpdateFinancials(ro.ID, shop.ID, FinancialPatch{
		PartsCost:        &parts,
		LaborCost:        &labor,
		DeductibleWaived: &waived,
	})
	require.NoError(t, err)
	assert.True(t, updated.TrueProfit.Equal(decimal.NewFromInt(1500)), "got %s", updated.TrueProfit)

	// A later patch of a single field recomputes from the merged state
	waived = decimal.Zero
	updated, err = UpdateFinancials(ro.ID, shop.ID, FinancialPatch{DeductibleWaived: &waived})
	require.NoError(t, err)
	assert.True(t, updated.TrueProfit.Equal(decimal.NewFromInt(2000)), "got %s", updated.TrueProfit)
}

func TestUpdateFinancialsRejectsNegative(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	negative := decimal.NewFromInt(-1)
	_, err := UpdateFinancials(ro.ID, shop.ID, FinancialPatch{PartsCost: &negative})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDeleteRepairOrderCascades(t *testing.T) {
	db := setupTestDB(t)
	shop, advisor, customer, vehicle := seedShop(t, db)
	ro := mustCreateRO(t, shop, customer, vehicle, &advisor)

	_, err := TransitionStatus(ro.ID, shop.ID, models.StatusEstimate, &advisor, "")
	require.NoError(t, err)
	_, err = IssueApprovalLink(ro.ID, shop.ID, &advisor)
	require.NoError(t, err)

	require.NoError(t, DeleteRepairOrder(ro.ID, shop.ID))

	for name, model := range map[string]interface{}{
		"repair order": &models.RepairOrder{},
		"audit log":    &models.JobStatusLog{},
		"links":        &models.EstimateApprovalLink{},
	} {
		var count int64
		if name == "repair order" {
			db.Model(model).Where("id = ?", ro.ID).Count(&count)
		} else {
			db.Model(model).Where("ro_id = ?", ro.ID).Count(&count)
		}
		assert.Equal(t, int64(0), count, "%s rows must be removed", name)
	}
}

func TestGetRepairOrderNotFound(t *testing.T) {
	db := setupTestDB(t)
	shop, _, _, _ := seedShop(t, db)

	_, err := GetRepairOrder("no-such-id", shop.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
