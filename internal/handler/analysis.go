package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/pkg/response"
)

type DesignAnalyzer interface {
	AnalyzeDesign(ctx context.Context, req *model.AnalyzeDesignRequest) *model.AnalysisResult
	CompareDesigns(ctx context.Context, req *model.CompareDesignsRequest) *model.AnalysisResult
	SuggestPrompts(ctx context.Context, req *model.SuggestPromptsRequest) *model.AnalysisResult
}

type AnalysisHandler struct {
	analyzer  DesignAnalyzer
	validator *validator.Validate
}

func NewAnalysisHandler(analyzer DesignAnalyzer, v *validator.Validate) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, validator: v}
}

// Analyze handles POST /api/designs/analyze
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	var req model.AnalyzeDesignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return analysisResponse(c, h.analyzer.AnalyzeDesign(c.UserContext(), &req))
}

// Compare handles POST /api/designs/compare
func (h *AnalysisHandler) Compare(c *fiber.Ctx) error {
	var req model.CompareDesignsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return analysisResponse(c, h.analyzer.CompareDesigns(c.UserContext(), &req))
}

// Suggest handles POST /api/designs/suggest
func (h *AnalysisHandler) Suggest(c *fiber.Ctx) error {
	var req model.SuggestPromptsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	return analysisResponse(c, h.analyzer.SuggestPrompts(c.UserContext(), &req))
}

func analysisResponse(c *fiber.Ctx, res *model.AnalysisResult) error {
	if !res.Success {
		var details interface{}
		if res.OriginalError != "" {
			details = fiber.Map{"originalError": res.OriginalError}
		}
		return response.AnalysisUnavailable(c, res.Error, details)
	}
	return response.OK(c, res)
}
