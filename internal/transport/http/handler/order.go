package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/greenmart/storefront/internal/order/domain"
	"github.com/greenmart/storefront/internal/order/service"
	"github.com/greenmart/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service service.OrderService
	logger  *zap.Logger
}

func NewOrderHandler(service service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) Quote(c *fiber.Ctx) error {
	input := new(struct {
		Items             []domain.CartItem `json:"items"`
		ShippingAddress   *domain.Address   `json:"shipping_address"`
		DeliveryDateIndex *int              `json:"delivery_date_index"`
	})

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in quote",
			zap.Error(err),
		)

		return fail(c, fiber.StatusBadRequest, "Error parsing body")
	}

	quote := h.service.QuoteCart(c.UserContext(), input.Items, input.ShippingAddress != nil, input.DeliveryDateIndex)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"quote":   quote,
	})
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	input := new(domain.CartInput)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in create",
			zap.Error(err),
		)

		return fail(c, fiber.StatusBadRequest, "Error parsing body")
	}

	userId, _ := c.Locals("userId").(string)

	orderID, err := h.service.Create(c.UserContext(), input, userId)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"create order failed",
			zap.Error(err),
		)

		return respondError(c, err)
	}

	mylogger.Info(
		c.UserContext(),
		h.logger,
		"create order succeeded",
		zap.String("order_id", orderID),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"order_id": orderID,
		"message":  "Order created successfully",
	})
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	userId, _ := c.Locals("userId").(string)

	order, err := h.service.GetByID(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}

	// Orders are only visible to their owner.
	if order.UserID != userId {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

func (h *OrderHandler) CreatePayPalOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")

	providerOrderID, err := h.service.CreatePayPalOrder(c.UserContext(), orderID)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"create paypal order failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      providerOrderID,
	})
}

func (h *OrderHandler) ApprovePayPalOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")

	input := new(struct {
		OrderID string `json:"orderID"`
	})
	if err := c.BodyParser(input); err != nil {
		return fail(c, fiber.StatusBadRequest, "Error parsing body")
	}

	if err := h.service.ApprovePayPalOrder(c.UserContext(), orderID, input.OrderID); err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"approve paypal order failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Your order has been successfully paid by PayPal",
	})
}
