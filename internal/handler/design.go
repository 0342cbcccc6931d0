package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/middleware"
	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/internal/service"
	"github.com/vibewear/api/pkg/response"
)

type DesignGenerator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) *model.GenerationOutcome
}

type DesignHandler struct {
	designs   DesignGenerator
	validator *validator.Validate
}

func NewDesignHandler(designs DesignGenerator, v *validator.Validate) *DesignHandler {
	return &DesignHandler{designs: designs, validator: v}
}

// Generate handles POST /api/designs/generate
func (h *DesignHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	req.ClientKey = middleware.GetClientKey(c)
	outcome := h.designs.Generate(c.UserContext(), &req)

	switch {
	case outcome.Success:
		return response.OK(c, outcome)
	case outcome.Reason != "":
		return response.PromptRejected(c, string(outcome.Reason), outcome.Error)
	default:
		return response.GenerationFailed(c, outcome.Error)
	}
}

// Styles handles GET /api/designs/styles
func (h *DesignHandler) Styles(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"styles":  service.Styles(),
		"default": model.DefaultStyle,
	})
}
