package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/services"
	"github.com/marinelli-collision/bodyshop-api/utils"
)

// UploadPhoto handles POST /api/v1/repair-orders/:id/photos - attaches a
// damage photo to the order
func UploadPhoto(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	photo, err := services.AttachPhoto(c.Param("id"), user.ShopID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    photo,
	})
}

// ListPhotos handles GET /api/v1/repair-orders/:id/photos - returns the
// order's photos with presigned URLs
func ListPhotos(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	photos, err := services.ListPhotos(c.Param("id"), user.ShopID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    photos,
	})
}
