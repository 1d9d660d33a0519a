package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/utils"
)

// CreateIntentResult carries what the client needs to confirm a payment
type CreateIntentResult struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
}

// PaymentHistoryEntry is one row of the shop's payment history projection
type PaymentHistoryEntry struct {
	PaymentIntentID string     `json:"payment_intent_id"`
	ROID            string     `json:"ro_id"`
	RONumber        int        `json:"ro_number"`
	CustomerName    string     `json:"customer_name"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreatePaymentIntent asks the processor for a payment intent covering the
// given amount and records it locally. The local row is upserted on the
// intent id, so a retried call for the same intent never duplicates it.
func CreatePaymentIntent(ctx context.Context, roID string, shopID uint, amountCents int64) (*CreateIntentResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	processor := GetPaymentProcessor()
	if processor == nil {
		return nil, ErrProcessorUnavailable
	}

	db := config.GetDB()
	var ro models.RepairOrder
	if err := db.First(&ro, "id = ?", roID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ro.ShopID != shopID {
		return nil, ErrForbidden
	}

	metadata := map[string]string{
		"ro_id":     ro.ID,
		"ro_number": fmt.Sprintf("%d", ro.RONumber),
		"shop_id":   fmt.Sprintf("%d", ro.ShopID),
	}
	intentID, clientSecret, err := processor.CreateIntent(ctx, amountCents, "usd", metadata)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		payment := models.RoPayment{
			ROID:            ro.ID,
			PaymentIntentID: intentID,
			AmountCents:     amountCents,
			Currency:        "usd",
			Status:          models.PaymentStatusPending,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_intent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount_cents", "updated_at"}),
		}).Create(&payment).Error; err != nil {
			return err
		}

		return tx.Model(&ro).Updates(map[string]interface{}{
			"payment_status":           models.PaymentStatusPending,
			"stripe_payment_intent_id": intentID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("created payment intent %s for RO #%d (%d cents)", intentID, ro.RONumber, amountCents)
	return &CreateIntentResult{
		PaymentIntentID: intentID,
		ClientSecret:    clientSecret,
		AmountCents:     amountCents,
	}, nil
}

// HandleWebhook verifies and reconciles one webhook delivery from the
// payment processor. Deliveries may be replayed or arrive out of order, so
// every branch is idempotent with respect to the intent id: a replay never
// duplicates a payment row and at worst resends a notification.
func HandleWebhook(signature string, rawBody []byte) error {
	processor := GetPaymentProcessor()
	if processor == nil {
		return ErrInvalidSignature
	}

	event, err := processor.VerifyWebhook(rawBody, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return reconcileSucceeded(event)
	case "payment_intent.payment_failed":
		return reconcileFailed(event)
	default:
		// Unrecognized events are acknowledged and ignored
		log.Printf("ignoring webhook event type %s", event.Type)
		return nil
	}
}

// parseIntent pulls the payment intent out of the event payload
func parseIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent from event: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("webhook event carries no payment intent id")
	}
	return &intent, nil
}

// findOrderForIntent locates the repair order a webhook event belongs to,
// first by the stored correlation id, then by the ro_id the intent metadata
// carries.
func findOrderForIntent(db *gorm.DB, intent *stripe.PaymentIntent) (*models.RepairOrder, error) {
	var ro models.RepairOrder
	err := db.First(&ro, "stripe_payment_intent_id = ?", intent.ID).Error
	if err == nil {
		return &ro, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	roID := intent.Metadata["ro_id"]
	if roID == "" {
		return nil, ErrNotFound
	}
	if err := db.First(&ro, "id = ?", roID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ro, nil
}

func reconcileSucceeded(event *stripe.Event) error {
	intent, err := parseIntent(event)
	if err != nil {
		return err
	}

	db := config.GetDB()
	ro, err := findOrderForIntent(db, intent)
	if err != nil {
		return err
	}

	// Detect replays so the owner notification is not resent needlessly
	var existing models.RoPayment
	alreadySucceeded := db.First(&existing, "payment_intent_id = ?", intent.ID).Error == nil &&
		existing.Status == models.PaymentStatusSucceeded

	now := time.Now()
	method := "card"
	if intent.PaymentMethod != nil && intent.PaymentMethod.ID != "" {
		method = intent.PaymentMethod.ID
	}
	paidAmount := utils.CentsToDecimal(intent.Amount)

	err = db.Transaction(func(tx *gorm.DB) error {
		payment := models.RoPayment{
			ROID:            ro.ID,
			PaymentIntentID: intent.ID,
			AmountCents:     intent.Amount,
			Currency:        string(intent.Currency),
			Status:          models.PaymentStatusSucceeded,
			PaymentMethod:   &method,
			PaidAt:          &now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_intent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "paid_at", "payment_method", "amount_cents", "currency", "updated_at"}),
		}).Create(&payment).Error; err != nil {
			return err
		}

		return tx.Model(&models.RepairOrder{}).Where("id = ?", ro.ID).Updates(map[string]interface{}{
			"payment_status":           models.PaymentStatusSucceeded,
			"payment_received":         true,
			"stripe_payment_intent_id": intent.ID,
			"paid_at":                  &now,
			"paid_amount":              paidAmount,
			"payment_method":           method,
		}).Error
	})
	if err != nil {
		return err
	}

	log.Printf("payment intent %s succeeded for RO %s (%d cents)", intent.ID, ro.ID, intent.Amount)
	if !alreadySucceeded {
		notifyOwnersOfPayment(ro.ID, intent.Amount)
	}
	return nil
}

func reconcileFailed(event *stripe.Event) error {
	intent, err := parseIntent(event)
	if err != nil {
		return err
	}

	db := config.GetDB()
	ro, err := findOrderForIntent(db, intent)
	if err != nil {
		return err
	}

	// A stale failure event redelivered after the intent succeeded must not
	// downgrade the settled payment
	var existing models.RoPayment
	if db.First(&existing, "payment_intent_id = ?", intent.ID).Error == nil &&
		existing.Status == models.PaymentStatusSucceeded {
		log.Printf("ignoring failed event for already-succeeded intent %s", intent.ID)
		return nil
	}

	failureMessage := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		failureMessage = intent.LastPaymentError.Msg
	}

	return db.Transaction(func(tx *gorm.DB) error {
		payment := models.RoPayment{
			ROID:            ro.ID,
			PaymentIntentID: intent.ID,
			AmountCents:     intent.Amount,
			Currency:        string(intent.Currency),
			Status:          models.PaymentStatusFailed,
			FailureMessage:  &failureMessage,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_intent_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "failure_message", "updated_at"}),
		}).Create(&payment).Error; err != nil {
			return err
		}

		// A failed payment never touches the lifecycle status
		return tx.Model(&models.RepairOrder{}).Where("id = ?", ro.ID).
			Update("payment_status", models.PaymentStatusFailed).Error
	})
}

// notifyOwnersOfPayment tells shop staff that money arrived. Best-effort.
func notifyOwnersOfPayment(roID string, amountCents int64) {
	dispatcher := GetNotificationDispatcher()
	if dispatcher == nil {
		return
	}

	db := config.GetDB()
	var ro models.RepairOrder
	if err := db.Preload("Shop").Preload("Vehicle").First(&ro, "id = ?", roID).Error; err != nil {
		log.Printf("failed to load RO %s for payment notification: %v", roID, err)
		return
	}

	amount := utils.CentsToDecimal(amountCents)
	for _, email := range ro.Shop.OwnerEmailList() {
		dispatcher.Enqueue(email,
			fmt.Sprintf("Payment of $%s received for RO #%d (%s)", amount.StringFixed(2), ro.RONumber, ro.Vehicle.Description()))
	}
}

// PaymentHistory returns every payment row for the shop joined with its
// repair order and customer. Read-only projection, no side effects.
func PaymentHistory(shopID uint) ([]PaymentHistoryEntry, error) {
	db := config.GetDB()

	var entries []PaymentHistoryEntry
	err := db.Model(&models.RoPayment{}).
		Select("ro_payments.payment_intent_id, ro_payments.ro_id, repair_orders.ro_number, customers.name AS customer_name, ro_payments.amount_cents, ro_payments.currency, ro_payments.status, ro_payments.paid_at, ro_payments.created_at").
		Joins("JOIN repair_orders ON repair_orders.id = ro_payments.ro_id").
		Joins("JOIN customers ON customers.id = repair_orders.customer_id").
		Where("repair_orders.shop_id = ?", shopID).
		Order("ro_payments.created_at DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PaymentStatusFor returns the payment rows of one repair order
func PaymentStatusFor(roID string, shopID uint) ([]models.RoPayment, error) {
	db := config.GetDB()

	var ro models.RepairOrder
	if err := db.First(&ro, "id = ?", roID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ro.ShopID != shopID {
		return nil, ErrForbidden
	}

	var payments []models.RoPayment
	if err := db.Where("ro_id = ?", ro.ID).Order("created_at ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
