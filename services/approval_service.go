package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/utils"
)

// Decision values accepted by RespondToApprovalLink
const (
	DecisionApprove = "approve"
	DecisionDecline = "decline"
)

const approvalNote = "estimate approved via customer approval link"

// ApprovalSummary is the deliberately minimal view returned to the public
// link holder: the financials, the vehicle, and the shop's contact info.
// No internal notes, no profit figures, no other customers' data.
type ApprovalSummary struct {
	RONumber     int              `json:"ro_number"`
	Status       models.JobStatus `json:"status"`
	Total        decimal.Decimal  `json:"total"`
	Tax          decimal.Decimal  `json:"tax"`
	Deductible   decimal.Decimal  `json:"deductible"`
	Responded    bool             `json:"responded"`
	CustomerName string           `json:"customer_name"`
	Vehicle      string           `json:"vehicle"`
	ShopName     string           `json:"shop_name"`
	ShopPhone    string           `json:"shop_phone"`
	ShopEmail    string           `json:"shop_email"`
}

// IssueApprovalLink replaces any pending link for the repair order with a
// fresh single-use token and mirrors it onto the order for quick lookup.
// Returns the shareable URL embedding the token.
func IssueApprovalLink(roID string, shopID uint, actor *models.User) (string, error) {
	db := config.GetDB()

	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}

	var createdBy *uint
	if actor != nil {
		createdBy = &actor.ID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
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

		// At most one unresponded link per order: issuing replaces it
		if err := tx.Where("ro_id = ? AND responded_at IS NULL", ro.ID).
			Delete(&models.EstimateApprovalLink{}).Error; err != nil {
			return err
		}

		link := models.EstimateApprovalLink{
			ROID:      ro.ID,
			Token:     token,
			CreatedBy: createdBy,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}

		return tx.Model(&ro).Update("approval_token", token).Error
	})
	if err != nil {
		return "", err
	}

	cfg := config.GetConfig()
	base := "http://localhost:8080"
	if cfg != nil && cfg.PublicBaseURL != "" {
		base = cfg.PublicBaseURL
	}
	return fmt.Sprintf("%s/approve/%s", base, token), nil
}

// ResolveApprovalLink looks up a token and returns the public summary of its
// repair order. Unauthenticated by design: the token is the capability.
func ResolveApprovalLink(token string) (*ApprovalSummary, error) {
	db := config.GetDB()

	var link models.EstimateApprovalLink
	if err := db.First(&link, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var ro models.RepairOrder
	if err := db.Preload("Customer").Preload("Vehicle").Preload("Shop").
		First(&ro, "id = ?", link.ROID).Error; err != nil {
		return nil, err
	}

	return &ApprovalSummary{
		RONumber:     ro.RONumber,
		Status:       ro.Status,
		Total:        ro.Total,
		Tax:          ro.Tax,
		Deductible:   ro.Deductible,
		Responded:    link.Responded(),
		CustomerName: ro.Customer.Name,
		Vehicle:      ro.Vehicle.Description(),
		ShopName:     ro.Shop.Name,
		ShopPhone:    ro.Shop.Phone,
		ShopEmail:    ro.Shop.Email,
	}, nil
}

// RespondToApprovalLink consumes a token with an approve or decline
// decision. Exactly one of the two branches runs, and the token is consumed
// exactly once: the responded_at stamp is a compare-and-set, so of two
// concurrent responders one wins and the other gets ErrAlreadyResponded.
// Approving transitions the order to the approval stage in the same
// transaction that consumes the token; declining records the reason as a
// communication and never touches the order's status.
func RespondToApprovalLink(token, decision, reason string) (*models.RepairOrder, error) {
	if decision != DecisionApprove && decision != DecisionDecline {
		return nil, ErrInvalidDecision
	}
	if decision == DecisionDecline && reason == "" {
		return nil, ErrReasonRequired
	}

	db := config.GetDB()

	var link models.EstimateApprovalLink
	if err := db.First(&link, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if link.Responded() {
		return nil, ErrAlreadyResponded
	}

	var ro models.RepairOrder
	if err := db.First(&ro, "id = ?", link.ROID).Error; err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{"responded_at": &now}
		if decision == DecisionDecline {
			updates["decline_reason"] = reason
		}

		// Compare-and-set on the pending stamp enforces single use even
		// under concurrent responds.
		res := tx.Model(&models.EstimateApprovalLink{}).
			Where("token = ? AND responded_at IS NULL", token).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResponded
		}

		if decision == DecisionApprove {
			// System actor: public responder has no principal
			return transitionInTx(tx, ro.ID, ro.ShopID, models.StatusApproval, nil, approvalNote)
		}

		comm := models.Communication{
			ROID:    ro.ID,
			Channel: "note",
			Body:    fmt.Sprintf("estimate declined via approval link: %s", reason),
		}
		return tx.Create(&comm).Error
	})
	if err != nil {
		return nil, err
	}

	loaded, err := GetRepairOrder(ro.ID, ro.ShopID)
	if err != nil {
		return nil, err
	}
	if decision == DecisionApprove {
		notifyStatusChange(loaded, models.StatusApproval)
	}
	return loaded, nil
}
