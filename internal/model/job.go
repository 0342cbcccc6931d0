package model

import (
	"encoding/json"
	"time"
)

// Job represents a background job in the system
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"currentStep,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	RetryCount  int             `json:"retryCount"`
}

// Job types
const (
	JobTypeCheckoutDesign = "checkout_design"
)

// CheckoutDesignRequest starts the high-quality render used for a print order
type CheckoutDesignRequest struct {
	Prompt       string  `json:"prompt" validate:"required,max=1000"`
	Style        StyleID `json:"style" validate:"omitempty,max=64"`
	GarmentColor string  `json:"garmentColor" validate:"omitempty,max=64"`
	OrderRef     string  `json:"orderRef" validate:"omitempty,max=128"`
}

// CheckoutJobPayload is stored with the job and handed to the worker
type CheckoutJobPayload struct {
	Prompt       string  `json:"prompt"`
	Style        StyleID `json:"style"`
	GarmentColor string  `json:"garmentColor"`
	OrderRef     string  `json:"orderRef,omitempty"`
	ClientKey    string  `json:"clientKey,omitempty"`
}

// CheckoutDesignResult is the finished print-ready artwork
type CheckoutDesignResult struct {
	ImageURL      string `json:"imageUrl"`
	StoredURL     string `json:"storedUrl,omitempty"`
	StorageKey    string `json:"storageKey,omitempty"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
	Prompt        string `json:"prompt"`
	OrderRef      string `json:"orderRef,omitempty"`
}

type JobStartResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type JobStatusResponse struct {
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

type JobCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}
