package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepairOrder represents one vehicle's repair job from intake to closure.
// It is the aggregate root: status changes go through the status service
// (never by direct assignment), money fields feed the profit calculator,
// and payment fields are reconciled from the payment processor.
type RepairOrder struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	RONumber int    `gorm:"not null;uniqueIndex:idx_shop_ro_number" json:"ro_number"` // shop-scoped, monotonically assigned
	ShopID   uint   `gorm:"not null;index;uniqueIndex:idx_shop_ro_number" json:"shop_id"`
	Shop     Shop   `gorm:"foreignKey:ShopID" json:"-"`

	JobType     string    `gorm:"not null;default:'collision'" json:"job_type"`
	PaymentType string    `gorm:"not null;default:'insurance'" json:"payment_type"` // insurance or cash
	Status      JobStatus `gorm:"not null;default:'intake'" json:"status"`

	// Money fields, all non-negative decimals except TrueProfit
	PartsCost          decimal.Decimal `gorm:"type:numeric;default:0" json:"parts_cost"`
	LaborCost          decimal.Decimal `gorm:"type:numeric;default:0" json:"labor_cost"`
	SubletCost         decimal.Decimal `gorm:"type:numeric;default:0" json:"sublet_cost"`
	Tax                decimal.Decimal `gorm:"type:numeric;default:0" json:"tax"`
	Total              decimal.Decimal `gorm:"type:numeric;default:0" json:"total"`
	Deductible         decimal.Decimal `gorm:"type:numeric;default:0" json:"deductible"`
	DeductibleWaived   decimal.Decimal `gorm:"type:numeric;default:0" json:"deductible_waived"`
	ReferralFee        decimal.Decimal `gorm:"type:numeric;default:0" json:"referral_fee"`
	GoodwillRepairCost decimal.Decimal `gorm:"type:numeric;default:0" json:"goodwill_repair_cost"`
	TrueProfit         decimal.Decimal `gorm:"type:numeric;default:0" json:"true_profit"` // denormalized cache, may be negative

	// Payment fields. PaymentStatus is canonical; PaymentReceived is a
	// legacy mirror kept in sync (true iff PaymentStatus == succeeded).
	PaymentStatus         string           `gorm:"not null;default:'unpaid'" json:"payment_status"`
	PaymentReceived       bool             `gorm:"not null;default:false" json:"payment_received"`
	StripePaymentIntentID *string          `gorm:"uniqueIndex" json:"stripe_payment_intent_id,omitempty"`
	PaidAt                *time.Time       `json:"paid_at,omitempty"`
	PaidAmount            *decimal.Decimal `gorm:"type:numeric" json:"paid_amount,omitempty"`
	PaymentMethod         *string          `json:"payment_method,omitempty"`

	// Billing period fields for month-end revenue reporting
	BillingMonth  string `gorm:"size:7;not null;index" json:"billing_month"` // YYYY-MM
	CarriedOver   bool   `gorm:"not null;default:false" json:"carried_over"`
	RevenuePeriod string `gorm:"not null;default:'current'" json:"revenue_period"`

	// Active approval link token, mirrored here for quick lookup
	ApprovalToken *string `json:"approval_token,omitempty"`

	CustomerID uint     `gorm:"not null;index" json:"customer_id"`
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleID  uint     `gorm:"not null;index" json:"vehicle_id"`
	Vehicle    Vehicle  `gorm:"foreignKey:VehicleID" json:"vehicle"`

	TechnicianID *uint `gorm:"index" json:"technician_id"`
	Technician   *User `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`

	Photos     []RoPhoto      `gorm:"foreignKey:ROID" json:"photos,omitempty"`
	StatusLogs []JobStatusLog `gorm:"foreignKey:ROID" json:"status_logs,omitempty"`
	Payments   []RoPayment    `gorm:"foreignKey:ROID" json:"payments,omitempty"`

	IntakeDate        *time.Time `json:"intake_date,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the RepairOrder model
func (RepairOrder) TableName() string {
	return "repair_orders"
}

// BeforeCreate assigns an opaque globally unique id when one is not set
func (ro *RepairOrder) BeforeCreate(tx *gorm.DB) error {
	if ro.ID == "" {
		ro.ID = uuid.NewString()
	}
	return nil
}

// RoPhoto stores the S3 key of one damage photo attached to a repair order
type RoPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ROID      string    `gorm:"size:36;not null;index" json:"ro_id"`
	S3Key     string    `gorm:"not null" json:"s3_key"`
	URL       string    `gorm:"-" json:"url,omitempty"` // computed, presigned
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the RoPhoto model
func (RoPhoto) TableName() string {
	return "ro_photos"
}
