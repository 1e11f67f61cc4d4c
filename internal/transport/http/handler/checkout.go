package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/greenmart/storefront/internal/order/repository"
	"github.com/greenmart/storefront/internal/order/service"
	"github.com/greenmart/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// CheckoutHandler lands the browser redirects coming back from the payment
// provider's hosted page.
type CheckoutHandler struct {
	service service.OrderService
	siteURL string
	logger  *zap.Logger
}

func NewCheckoutHandler(service service.OrderService, siteURL string, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		siteURL: siteURL,
		logger:  logger,
	}
}

// StripeSuccess confirms the intent server-side before trusting the redirect.
// An unfinished payment goes back to the checkout page instead of erroring.
func (h *CheckoutHandler) StripeSuccess(c *fiber.Ctx) error {
	orderID := c.Params("id")
	intentID := c.Query("payment_intent")

	if intentID == "" {
		return fail(c, fiber.StatusBadRequest, "Missing payment_intent")
	}

	err := h.service.MarkPaidFromStripeIntent(c.UserContext(), orderID, intentID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentPending) {
			return c.Redirect(fmt.Sprintf("%s/checkout/%s", h.siteURL, orderID), fiber.StatusSeeOther)
		}

		if errors.Is(err, repository.ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, "Order not found")
		}

		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"stripe success landing failed",
			zap.String("order_id", orderID),
			zap.String("intent_id", intentID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Redirect(fmt.Sprintf("%s/account/orders/%s", h.siteURL, orderID), fiber.StatusSeeOther)
}
