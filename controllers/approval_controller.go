package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/services"
)

// ApprovalDecisionRequest represents a customer's response to an estimate link
type ApprovalDecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
}

// IssueApprovalLink handles POST /api/v1/repair-orders/:id/approval-link -
// generates a single-use public estimate approval URL
func IssueApprovalLink(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	url, err := services.IssueApprovalLink(c.Param("id"), user.ShopID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"approval_url": url,
		},
	})
}

// ResolveApprovalLink handles GET /public/approvals/:token - unauthenticated
// lookup of the summary a customer sees before deciding
func ResolveApprovalLink(c *gin.Context) {
	summary, err := services.ResolveApprovalLink(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// RespondToApprovalLink handles POST /public/approvals/:token - records the
// customer's approve/decline decision and consumes the token
func RespondToApprovalLink(c *gin.Context) {
	var req ApprovalDecisionRequest
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

	ro, err := services.RespondToApprovalLink(c.Param("token"), req.Decision, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ro_number": ro.RONumber,
			"status":    ro.Status,
			"decision":  req.Decision,
		},
	})
}
