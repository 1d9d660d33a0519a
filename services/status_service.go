package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
)

// Customer-facing message per lifecycle stage
var statusMessages = map[models.JobStatus]string{
	models.StatusIntake:   "Your vehicle has been checked in. We'll follow up with an estimate shortly.",
	models.StatusEstimate: "We're preparing the repair estimate for your vehicle.",
	models.StatusApproval: "Your estimate has been approved and your repair is being scheduled.",
	models.StatusParts:    "Parts for your repair are on order.",
	models.StatusRepair:   "Body repair work on your vehicle is underway.",
	models.StatusPaint:    "Your vehicle is in the paint shop.",
	models.StatusQC:       "Your vehicle is in final quality inspection.",
	models.StatusDelivery: "Your vehicle is ready for pickup!",
	models.StatusClosed:   "Your repair order is complete. Thank you for choosing us.",
}

// Stages that additionally notify shop staff
var staffNotifyStatuses = map[models.JobStatus]bool{
	models.StatusApproval: true,
	models.StatusDelivery: true,
	models.StatusClosed:   true,
}

// CreateRepairOrderInput is the typed input for opening a new repair order
type CreateRepairOrderInput struct {
	ShopID            uint
	CustomerID        uint
	VehicleID         uint
	JobType           string
	PaymentType       string
	Deductible        decimal.Decimal
	IntakeDate        *time.Time
	EstimatedDelivery *time.Time
}

// CreateRepairOrder opens a repair order in the intake stage, assigns the
// next shop-scoped RO number and writes the initial audit entry, all in one
// transaction.
func CreateRepairOrder(input CreateRepairOrderInput, actor *models.User) (*models.RepairOrder, error) {
	db := config.GetDB()

	var customer models.Customer
	if err := db.First(&customer, "id = ? AND shop_id = ?", input.CustomerID, input.ShopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var vehicle models.Vehicle
	if err := db.First(&vehicle, "id = ? AND shop_id = ?", input.VehicleID, input.ShopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	jobType := input.JobType
	if jobType == "" {
		jobType = "collision"
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = "insurance"
	}

	now := time.Now()
	intakeDate := input.IntakeDate
	if intakeDate == nil {
		intakeDate = &now
	}

	ro := models.RepairOrder{
		ShopID:            input.ShopID,
		CustomerID:        input.CustomerID,
		VehicleID:         input.VehicleID,
		JobType:           jobType,
		PaymentType:       paymentType,
		Status:            models.StatusIntake,
		Deductible:        input.Deductible,
		PaymentStatus:     models.PaymentStatusUnpaid,
		BillingMonth:      now.Format("2006-01"),
		RevenuePeriod:     models.RevenuePeriodCurrent,
		IntakeDate:        intakeDate,
		EstimatedDelivery: input.EstimatedDelivery,
	}

	var changedBy *uint
	if actor != nil {
		changedBy = &actor.ID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Assign the next shop-scoped RO number. The unique index on
		// (shop_id, ro_number) turns a concurrent duplicate into an
		// error instead of a silent collision.
		var next int
		if err := tx.Model(&models.RepairOrder{}).
			Where("shop_id = ?", input.ShopID).
			Select("COALESCE(MAX(ro_number), 0) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		ro.RONumber = next
		ro.TrueProfit = ComputeProfit(&ro).TrueProfit

		if err := tx.Create(&ro).Error; err != nil {
			return err
		}

		// Initial audit entry: from_status is null on creation
		entry := models.JobStatusLog{
			ROID:      ro.ID,
			ToStatus:  models.StatusIntake,
			ChangedBy: changedBy,
			Note:      "repair order created",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	loaded, err := GetRepairOrder(ro.ID, input.ShopID)
	if err != nil {
		return nil, err
	}
	notifyStatusChange(loaded, models.StatusIntake)
	return loaded, nil
}

// TransitionStatus moves a repair order to a new lifecycle stage. The status
// update and the audit entry commit atomically; the customer notification is
// scheduled only after the commit and never affects the outcome.
func TransitionStatus(roID string, shopID uint, newStatus models.JobStatus, actor *models.User, note string) (*models.RepairOrder, error) {
	if !models.IsKnownStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		return transitionInTx(tx, roID, shopID, newStatus, actor, note)
	})
	if err != nil {
		return nil, err
	}

	loaded, err := GetRepairOrder(roID, shopID)
	if err != nil {
		return nil, err
	}
	notifyStatusChange(loaded, newStatus)
	return loaded, nil
}

// transitionInTx performs the guarded status change inside an existing
// transaction. The approval link service reuses it so that consuming a token
// and transitioning the order commit as one unit.
func transitionInTx(tx *gorm.DB, roID string, shopID uint, newStatus models.JobStatus, actor *models.User, note string) error {
	var ro models.RepairOrder
	if err := tx.First(&ro, "id = ?", roID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if ro.ShopID != shopID {
		return ErrForbidden
	}
	if !models.IsValidTransition(ro.Status, newStatus) {
		return ErrInvalidStatus
	}

	from := ro.Status
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}
	if newStatus == models.StatusDelivery {
		now := time.Now()
		updates["actual_delivery"] = &now
	}

	query := tx.Model(&models.RepairOrder{}).Where("id = ?", ro.ID)
	if newStatus == models.StatusClosed {
		// Payment gate: the guarded update makes at most one concurrent
		// close win, and only once payment has actually been recorded.
		query = query.Where("payment_received = ?", true)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if newStatus == models.StatusClosed {
			return ErrPaymentRequired
		}
		return ErrNotFound
	}

	var changedBy *uint
	if actor != nil {
		changedBy = &actor.ID
	}
	entry := models.JobStatusLog{
		ROID:       ro.ID,
		FromStatus: &from,
		ToStatus:   newStatus,
		ChangedBy:  changedBy,
		Note:       note,
	}
	return tx.Create(&entry).Error
}

// FinancialPatch carries the optional money-field updates for one repair
// order. The field set is the allow-list: anything not named here cannot be
// patched.
type FinancialPatch struct {
	PartsCost          *decimal.Decimal `json:"parts_cost"`
	LaborCost          *decimal.Decimal `json:"labor_cost"`
	SubletCost         *decimal.Decimal `json:"sublet_cost"`
	Tax                *decimal.Decimal `json:"tax"`
	Total              *decimal.Decimal `json:"total"`
	Deductible         *decimal.Decimal `json:"deductible"`
	DeductibleWaived   *decimal.Decimal `json:"deductible_waived"`
	ReferralFee        *decimal.Decimal `json:"referral_fee"`
	GoodwillRepairCost *decimal.Decimal `json:"goodwill_repair_cost"`
}

func (p *FinancialPatch) validate() error {
	for name, v := range map[string]*decimal.Decimal{
		"parts_cost":           p.PartsCost,
		"labor_cost":           p.LaborCost,
		"sublet_cost":          p.SubletCost,
		"tax":                  p.Tax,
		"total":                p.Total,
		"deductible":           p.Deductible,
		"deductible_waived":    p.DeductibleWaived,
		"referral_fee":         p.ReferralFee,
		"goodwill_repair_cost": p.GoodwillRepairCost,
	} {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("%w: %s may not be negative", ErrInvalidAmount, name)
		}
	}
	return nil
}

// apply copies the set fields onto the order
func (p *FinancialPatch) apply(ro *models.RepairOrder) {
	if p.PartsCost != nil {
		ro.PartsCost = *p.PartsCost
	}
	if p.LaborCost != nil {
		ro.LaborCost = *p.LaborCost
	}
	if p.SubletCost != nil {
		ro.SubletCost = *p.SubletCost
	}
	if p.Tax != nil {
		ro.Tax = *p.Tax
	}
	if p.Total != nil {
		ro.Total = *p.Total
	}
	if p.Deductible != nil {
		ro.Deductible = *p.Deductible
	}
	if p.DeductibleWaived != nil {
		ro.DeductibleWaived = *p.DeductibleWaived
	}
	if p.ReferralFee != nil {
		ro.ReferralFee = *p.ReferralFee
	}
	if p.GoodwillRepairCost != nil {
		ro.GoodwillRepairCost = *p.GoodwillRepairCost
	}
}

// UpdateFinancials patches the money fields of a repair order and recomputes
// the cached true profit in the same transaction, so the stored figure never
// drifts from its inputs.
func UpdateFinancials(roID string, shopID uint, patch FinancialPatch) (*models.RepairOrder, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var ro models.RepairOrder
		if err := tx.First(&ro, "id = ?", roID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if ro.ShopID != shopID {
			return ErrForbidden
		}

		patch.apply(&ro)
		ro.TrueProfit = ComputeProfit(&ro).TrueProfit
		return tx.Save(&ro).Error
	})
	if err != nil {
		return nil, err
	}
	return GetRepairOrder(roID, shopID)
}

// GetRepairOrder loads one repair order fully denormalized: customer,
// vehicle, technician, ordered audit log and payment rows
func GetRepairOrder(roID string, shopID uint) (*models.RepairOrder, error) {
	db := config.GetDB()

	var ro models.RepairOrder
	err := db.
		Preload("Customer").
		Preload("Vehicle").
		Preload("Technician").
		Preload("Shop").
		Preload("StatusLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&ro, "id = ?", roID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ro.ShopID != shopID {
		return nil, ErrForbidden
	}
	return &ro, nil
}

// DeleteRepairOrder removes a repair order and every dependent audit,
// payment, link, photo and communication row. This is the only physical
// delete in the system and is restricted to admins by the controller.
func DeleteRepairOrder(roID string, shopID uint) error {
	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		var ro models.RepairOrder
		if err := tx.First(&ro, "id = ?", roID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if ro.ShopID != shopID {
			return ErrForbidden
		}

		for _, dependent := range []interface{}{
			&models.JobStatusLog{},
			&models.RoPayment{},
			&models.EstimateApprovalLink{},
			&models.Communication{},
			&models.RoPhoto{},
		} {
			if err := tx.Where("ro_id = ?", ro.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&ro).Error
	})
}

// notifyStatusChange schedules the best-effort notifications for a status
// change: one to the customer, and one to shop staff for select stages.
// Called after the transaction commits; failures only ever show up in logs.
func notifyStatusChange(ro *models.RepairOrder, newStatus models.JobStatus) {
	dispatcher := GetNotificationDispatcher()
	if dispatcher == nil {
		log.Printf("notification dispatcher not initialized, skipping notifications for RO #%d", ro.RONumber)
		return
	}

	message, ok := statusMessages[newStatus]
	if !ok {
		message = fmt.Sprintf("Your repair order status is now %s.", newStatus)
	}
	dispatcher.Enqueue(ro.Customer.PreferredRecipient(),
		fmt.Sprintf("%s (RO #%d, %s)", message, ro.RONumber, ro.Vehicle.Description()))

	if staffNotifyStatuses[newStatus] {
		for _, email := range ro.Shop.OwnerEmailList() {
			dispatcher.Enqueue(email,
				fmt.Sprintf("RO #%d (%s) moved to %s", ro.RONumber, ro.Vehicle.Description(), newStatus))
		}
	}
}
