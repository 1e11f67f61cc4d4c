package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/greenmart/storefront/internal/order/repository"
	"github.com/greenmart/storefront/internal/order/service"
	productRepository "github.com/greenmart/storefront/internal/product/repository"
	"github.com/sony/gobreaker"
)

// respondError maps service errors onto the uniform {success, message} body.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return fail(c, fiber.StatusUnauthorized, "User is not authenticated")
	case errors.As(err, &validationErr):
		return fail(c, fiber.StatusBadRequest, validationErr.Message)
	case errors.Is(err, repository.ErrOrderNotFound):
		return fail(c, fiber.StatusNotFound, "Order not found")
	case errors.Is(err, productRepository.ErrProductNotFound):
		return fail(c, fiber.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrPaymentVerification):
		return fail(c, fiber.StatusPaymentRequired, "Error in paypal payment")
	case errors.Is(err, service.ErrPaymentPending):
		return fail(c, fiber.StatusPaymentRequired, "Payment is not completed")
	case errors.Is(err, gobreaker.ErrOpenState):
		return fail(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable")
	case errors.Is(err, service.ErrPaymentProvider):
		return fail(c, fiber.StatusBadGateway, "Payment provider unavailable")
	default:
		return fail(c, fiber.StatusInternalServerError, "Internal error")
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
