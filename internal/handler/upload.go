package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/pkg/response"
)

const maxReferenceSize = 10 * 1024 * 1024 // 10MB

var referenceTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

type ReferenceStore interface {
	UploadReference(ctx context.Context, file io.Reader, contentType string, size int64) (*model.UploadReferenceResponse, error)
	DeleteReference(ctx context.Context, id string) error
}

type UploadHandler struct {
	uploads ReferenceStore
}

func NewUploadHandler(uploads ReferenceStore) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Reference handles POST /api/uploads/reference
func (h *UploadHandler) Reference(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxReferenceSize {
		return response.ValidationError(c, "File size exceeds 10MB limit", map[string]interface{}{
			"maxSize":  maxReferenceSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !referenceTypes[contentType] {
		return response.ValidationError(c, "Invalid file type. Supported: PNG, JPEG, WEBP", map[string]interface{}{
			"contentType": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.uploads.UploadReference(c.UserContext(), f, contentType, file.Size)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// DeleteReference handles DELETE /api/uploads/reference/:uploadId
func (h *UploadHandler) DeleteReference(c *fiber.Ctx) error {
	uploadID := c.Params("uploadId")
	if _, err := uuid.Parse(uploadID); err != nil {
		return response.ValidationError(c, "Invalid upload ID", nil)
	}

	if err := h.uploads.DeleteReference(c.UserContext(), uploadID); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
