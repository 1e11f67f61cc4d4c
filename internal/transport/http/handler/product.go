package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/greenmart/storefront/internal/product/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	service service.ProductService
	logger  *zap.Logger
}

func NewProductHandler(service service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))
	offset := int64(c.QueryInt("offset", 0))
	search := c.Query("search")

	products, total, err := h.service.List(c.UserContext(), limit, offset, search)
	if err != nil {
		h.logger.Warn(
			"list products failed",
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"products": products,
		"total":    total,
	})
}

func (h *ProductHandler) GetBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	product, err := h.service.GetBySlug(c.UserContext(), slug)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}
