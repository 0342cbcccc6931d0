package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/middleware"
	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/internal/service"
	"github.com/vibewear/api/pkg/response"
)

type CheckoutJobs interface {
	Start(ctx context.Context, req *model.CheckoutDesignRequest, clientKey string) (*model.JobStartResponse, error)
	GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error)
	GetResult(ctx context.Context, jobID string) (*model.CheckoutDesignResult, error)
	Cancel(ctx context.Context, jobID string) (*model.JobCancelResponse, error)
}

type CheckoutHandler struct {
	jobs      CheckoutJobs
	validator *validator.Validate
}

func NewCheckoutHandler(jobs CheckoutJobs, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{jobs: jobs, validator: v}
}

// Start handles POST /api/checkout/designs
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	var req model.CheckoutDesignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	// reject bad prompts before a job is queued
	if err := service.ValidatePrompt(req.Prompt); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return response.PromptRejected(c, string(verr.Kind), verr.Message)
		}
	}

	result, err := h.jobs.Start(c.UserContext(), &req, middleware.GetClientKey(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/checkout/designs/:jobId
func (h *CheckoutHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobs.GetStatus(c.UserContext(), jobID)
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// Result handles GET /api/checkout/designs/:jobId/result
func (h *CheckoutHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobs.GetResult(c.UserContext(), jobID)
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// Cancel handles POST /api/checkout/designs/:jobId/cancel
func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.jobs.Cancel(c.UserContext(), jobID)
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

func jobError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		return response.NotFound(c, "Job not found")
	case errors.Is(err, service.ErrJobNotCompleted):
		return response.ValidationError(c, "Job not completed yet", nil)
	case errors.Is(err, service.ErrJobAlreadyFinished):
		return response.Conflict(c, "Job already finished")
	default:
		return response.ServiceError(c, err.Error())
	}
}
