package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxPhotoSize is 10MB in bytes
	MaxPhotoSize = 10 * 1024 * 1024
)

// Damage photos come straight off phones, so JPEG and PNG both show up
var allowedPhotoFormats = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidatePhotoFile validates the uploaded damage photo's format and size
func ValidatePhotoFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxPhotoSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxPhotoSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedPhotoFormats[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only JPEG and PNG files are allowed",
		}
	}

	return nil
}

// PhotoContentType returns the MIME type for an allowed photo filename,
// defaulting to JPEG
func PhotoContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := allowedPhotoFormats[ext]; ok {
		return ct
	}
	return "image/jpeg"
}
