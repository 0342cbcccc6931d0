package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vibewear/api/internal/client"
	"github.com/vibewear/api/internal/model"
)

const referenceURLExpiry = 7 * 24 * time.Hour

// UploadService stores reference images shoppers attach for design analysis.
type UploadService struct {
	storage client.StorageClient
}

// NewUploadService accepts a nil storage for local development; uploads
// then return a mock URL and nothing is stored.
func NewUploadService(storage client.StorageClient) *UploadService {
	return &UploadService{storage: storage}
}

func (s *UploadService) UploadReference(ctx context.Context, file io.Reader, contentType string, size int64) (*model.UploadReferenceResponse, error) {
	id := uuid.NewString()
	key := referenceKey(id)

	resp := &model.UploadReferenceResponse{
		ID:          id,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}

	if s.storage == nil {
		resp.FileURL = "https://cdn.vibewear.shop/" + key
		return resp, nil
	}

	fileURL, err := s.storage.Upload(ctx, key, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload reference: %w", err)
	}
	if fileURL == "" {
		// no public bucket domain; hand out a signed link the vision model can fetch
		fileURL, err = s.storage.GetSignedURL(ctx, key, referenceURLExpiry)
		if err != nil {
			return nil, err
		}
	}

	resp.FileURL = fileURL
	return resp, nil
}

func (s *UploadService) DeleteReference(ctx context.Context, id string) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Delete(ctx, referenceKey(id))
}

func referenceKey(id string) string {
	return "references/" + id
}
