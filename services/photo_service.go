package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"gorm.io/gorm"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/utils"
)

// AttachPhoto validates and uploads a damage photo for a repair order and
// records its storage key
func AttachPhoto(roID string, shopID uint, fileHeader *multipart.FileHeader) (*models.RoPhoto, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return nil, err
	}

	s3Svc := GetS3Service()
	if s3Svc == nil {
		return nil, fmt.Errorf("photo storage is not configured")
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

	s3Key, err := s3Svc.UploadFile(fileHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	photo := models.RoPhoto{
		ROID:  ro.ID,
		S3Key: s3Key,
	}
	if err := db.Create(&photo).Error; err != nil {
		// Best effort: the orphaned object is deleted so the bucket does
		// not accumulate keys no row points at.
		if delErr := s3Svc.DeleteFile(s3Key); delErr != nil {
			log.Printf("failed to clean up orphaned photo %s: %v", s3Key, delErr)
		}
		return nil, err
	}

	return &photo, nil
}

// ListPhotos returns the repair order's photos with fresh presigned URLs
func ListPhotos(roID string, shopID uint) ([]models.RoPhoto, error) {
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

	var photos []models.RoPhoto
	if err := db.Where("ro_id = ?", ro.ID).Order("created_at ASC, id ASC").Find(&photos).Error; err != nil {
		return nil, err
	}

	s3Svc := GetS3Service()
	if s3Svc == nil {
		return photos, nil
	}
	for i := range photos {
		url, err := s3Svc.GetPresignedURL(photos[i].S3Key)
		if err != nil {
			log.Printf("failed to presign photo %s: %v", photos[i].S3Key, err)
			continue
		}
		photos[i].URL = url
	}
	return photos, nil
}
