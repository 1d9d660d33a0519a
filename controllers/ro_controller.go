package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/services"
)

// CreateRepairOrderRequest represents the request body for opening a repair order
type CreateRepairOrderRequest struct {
	CustomerID        uint             `json:"customer_id" binding:"required"`
	VehicleID         uint             `json:"vehicle_id" binding:"required"`
	JobType           string           `json:"job_type"`
	PaymentType       string           `json:"payment_type" binding:"omitempty,oneof=insurance cash"`
	Deductible        *decimal.Decimal `json:"deductible"`
	IntakeDate        *time.Time       `json:"intake_date"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery"`
}

// TransitionRequest represents the request body for a status transition
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// CreateRepairOrder handles POST /api/v1/repair-orders - opens a new repair order
func CreateRepairOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req CreateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	input := services.CreateRepairOrderInput{
		ShopID:            user.ShopID,
		CustomerID:        req.CustomerID,
		VehicleID:         req.VehicleID,
		JobType:           req.JobType,
		PaymentType:       req.PaymentType,
		IntakeDate:        req.IntakeDate,
		EstimatedDelivery: req.EstimatedDelivery,
	}
	if req.Deductible != nil {
		input.Deductible = *req.Deductible
	}

	ro, err := services.CreateRepairOrder(input, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    ro,
	})
}

// GetRepairOrder handles GET /api/v1/repair-orders/:id - returns one order
// fully denormalized (customer, vehicle, audit log, payments, profit)
func GetRepairOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	ro, err := services.GetRepairOrder(c.Param("id"), user.ShopID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ro,
		"profit":  services.ComputeProfit(ro),
	})
}

// TransitionRepairOrder handles POST /api/v1/repair-orders/:id/transition -
// moves the order to a new lifecycle stage
func TransitionRepairOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	ro, err := services.TransitionStatus(c.Param("id"), user.ShopID, models.JobStatus(req.Status), user, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ro,
	})
}

// UpdateRepairOrderFinancials handles PATCH /api/v1/repair-orders/:id/financials -
// patches money fields and recomputes the cached profit
func UpdateRepairOrderFinancials(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var patch services.FinancialPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	ro, err := services.UpdateFinancials(c.Param("id"), user.ShopID, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ro,
		"profit":  services.ComputeProfit(ro),
	})
}

// DeleteRepairOrder handles DELETE /api/v1/repair-orders/:id - cascading
// admin delete of the order and its audit/payment/link rows
func DeleteRepairOrder(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only admins can delete repair orders",
			},
		})
		return
	}

	if err := services.DeleteRepairOrder(c.Param("id"), user.ShopID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Repair order deleted",
	})
}
