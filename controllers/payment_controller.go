package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/services"
)

// CreatePaymentIntentRequest represents the request body for starting a payment
type CreatePaymentIntentRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// CreatePaymentIntent handles POST /api/v1/repair-orders/:id/payment-intent -
// starts a Stripe payment for the order's balance
func CreatePaymentIntent(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req CreatePaymentIntentRequest
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

	result, err := services.CreatePaymentIntent(c.Request.Context(), c.Param("id"), user.ShopID, req.AmountCents)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// StripeWebhook handles POST /webhooks/stripe - verifies the signature and
// reconciles payment events against repair orders. Always returns 200 for
// verified events we do not act on, so Stripe stops retrying them.
func StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PAYLOAD",
				"message": "Could not read webhook body",
			},
		})
		return
	}

	if err := services.HandleWebhook(c.GetHeader("Stripe-Signature"), payload); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// PaymentHistory handles GET /api/v1/payments - lists payment attempts for
// the caller's shop, newest first
func PaymentHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	entries, err := services.PaymentHistory(user.ShopID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// RepairOrderPayments handles GET /api/v1/repair-orders/:id/payments -
// lists payment attempts for one order
func RepairOrderPayments(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	payments, err := services.PaymentStatusFor(c.Param("id"), user.ShopID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}
