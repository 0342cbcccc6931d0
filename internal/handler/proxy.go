package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/client"
	"github.com/vibewear/api/internal/model"
)

// ImageProvider is the credential-holding provider client behind the proxies.
type ImageProvider interface {
	IsConfigured() bool
	GenerateImage(ctx context.Context, prompt string, quality model.QualityTier) (*model.ImageResult, error)
	ChatCompletion(ctx context.Context, payload json.RawMessage) (*client.ChatResult, error)
}

// ProxyHandler serves the two endpoints that hold the provider API key. They
// answer with flat {"error": "..."} bodies, which is what the design and
// analysis clients parse.
type ProxyHandler struct {
	provider  ImageProvider
	validator *validator.Validate
	log       zerolog.Logger
}

func NewProxyHandler(provider ImageProvider, v *validator.Validate, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		provider:  provider,
		validator: v,
		log:       log.With().Str("component", "proxy").Logger(),
	}
}

// GenerateDesign handles POST /proxy/generate-design
func (h *ProxyHandler) GenerateDesign(c *fiber.Ctx) error {
	var req model.DesignProxyRequest
	if err := c.BodyParser(&req); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid request body", "")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return proxyError(c, fiber.StatusBadRequest, "Missing prompt", "")
	}
	if err := h.validator.Struct(&req); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid quality", "")
	}
	if !h.provider.IsConfigured() {
		return proxyError(c, fiber.StatusInternalServerError, client.ErrNotConfigured.Error(), "")
	}

	img, err := h.provider.GenerateImage(c.UserContext(), req.Prompt, req.Quality)
	if err != nil {
		return h.providerFailure(c, "image generation failed", err)
	}

	return c.JSON(model.DesignProxyResponse{URL: img.URL, RevisedPrompt: img.RevisedPrompt})
}

// AnalyzeImage handles POST /proxy/analyze-image
func (h *ProxyHandler) AnalyzeImage(c *fiber.Ctx) error {
	var req model.AnalysisProxyRequest
	if err := c.BodyParser(&req); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid request body", "")
	}
	if err := h.validator.Struct(&req); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid analysis type or payload", "")
	}
	if !h.provider.IsConfigured() {
		return proxyError(c, fiber.StatusInternalServerError, client.ErrNotConfigured.Error(), "")
	}

	res, err := h.provider.ChatCompletion(c.UserContext(), req.Payload)
	if err != nil {
		return h.providerFailure(c, "image analysis failed", err)
	}

	data := &model.AnalysisData{Usage: res.Usage}
	switch req.Type {
	case model.AnalysisSingle:
		data.Analysis = res.Content
	case model.AnalysisCompare:
		data.Comparison = res.Content
	case model.AnalysisSuggest:
		data.Suggestions = res.Content
	}

	return c.JSON(model.AnalysisProxyResponse{Data: data})
}

// providerFailure passes the provider's status and code through so the
// caller can tailor its message.
func (h *ProxyHandler) providerFailure(c *fiber.Ctx, msg string, err error) error {
	h.log.Error().Err(err).Msg(msg)

	var perr *client.ProviderError
	if errors.As(err, &perr) {
		return proxyError(c, perr.Status, perr.Message, perr.Code)
	}
	if errors.Is(err, client.ErrMissingResult) {
		return proxyError(c, fiber.StatusBadGateway, err.Error(), "")
	}
	return proxyError(c, fiber.StatusBadGateway, "Upstream request failed", "")
}

func proxyError(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(model.DesignProxyResponse{Error: message, Code: code})
}
