package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/middleware"
	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/services"
)

// currentUser resolves the authenticated principal to its User row. Every
// authenticated handler goes through this; the user's ShopID scopes all
// subsequent queries. A nil return means the response has already been
// written.
func currentUser(c *gin.Context) *models.User {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil
	}

	return &user
}

// respondServiceError maps a service error 1:1 to an HTTP response. Handlers
// never re-interpret errors: validation, state-conflict and dependency
// failures each keep their own code.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Something went wrong"

	switch {
	case errors.Is(err, services.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Repair order not found"
	case errors.Is(err, services.ErrForbidden):
		status, code, message = http.StatusForbidden, "FORBIDDEN", "Repair order belongs to a different shop"
	case errors.Is(err, services.ErrInvalidStatus):
		status, code, message = http.StatusBadRequest, "INVALID_STATUS", "Unknown repair order status"
	case errors.Is(err, services.ErrPaymentRequired):
		status, code, message = http.StatusPaymentRequired, "PAYMENT_REQUIRED", "Payment must be received before the order can be closed"
	case errors.Is(err, services.ErrAlreadyResponded):
		status, code, message = http.StatusConflict, "ALREADY_RESPONDED", "This approval link has already been used"
	case errors.Is(err, services.ErrReasonRequired):
		status, code, message = http.StatusBadRequest, "REASON_REQUIRED", "A reason is required to decline an estimate"
	case errors.Is(err, services.ErrInvalidDecision):
		status, code, message = http.StatusBadRequest, "INVALID_DECISION", "Decision must be approve or decline"
	case errors.Is(err, services.ErrInvalidAmount):
		status, code, message = http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number of cents"
	case errors.Is(err, services.ErrProcessorUnavailable):
		status, code, message = http.StatusServiceUnavailable, "PROCESSOR_UNAVAILABLE", "The payment processor is not configured"
	case errors.Is(err, services.ErrInvalidSignature):
		status, code, message = http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
