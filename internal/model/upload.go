package model

import "time"

// UploadReferenceResponse describes a stored reference image
type UploadReferenceResponse struct {
	ID          string    `json:"id"`
	FileURL     string    `json:"fileUrl"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
