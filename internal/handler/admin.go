package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/pkg/response"
)

type GenerationLogReader interface {
	List(ctx context.Context, limit int) ([]model.GenerationLogEntry, error)
}

type AdminHandler struct {
	log GenerationLogReader
}

func NewAdminHandler(log GenerationLogReader) *AdminHandler {
	return &AdminHandler{log: log}
}

// Generations handles GET /api/admin/generations?limit=
func (h *AdminHandler) Generations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return response.ValidationError(c, "limit must be positive", nil)
	}

	entries, err := h.log.List(c.UserContext(), limit)
	if err != nil {
		return response.ServiceError(c, "Failed to read generation log")
	}

	return response.OK(c, model.GenerationLogPage{Entries: entries, Count: len(entries)})
}
