package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/pkg/response"
)

type WaitlistJoiner interface {
	Join(ctx context.Context, req *model.WaitlistRequest) (*model.WaitlistResponse, error)
}

type WaitlistHandler struct {
	waitlist  WaitlistJoiner
	validator *validator.Validate
}

func NewWaitlistHandler(waitlist WaitlistJoiner, v *validator.Validate) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist, validator: v}
}

// Join handles POST /api/waitlist. Joining twice is not an error; the
// second call reports the original sign-up.
func (h *WaitlistHandler) Join(c *fiber.Ctx) error {
	var req model.WaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.waitlist.Join(c.UserContext(), &req)
	if err != nil {
		return response.ServiceError(c, "Failed to join waitlist")
	}

	if result.Existing {
		return response.OK(c, result)
	}
	return response.Created(c, result)
}
