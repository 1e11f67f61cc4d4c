package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/greenmart/storefront/internal/transport/http/handler"
	"github.com/greenmart/storefront/internal/transport/http/middleware"
)

type Handlers struct {
	Order    *handler.OrderHandler
	Product  *handler.ProductHandler
	Checkout *handler.CheckoutHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, jwtSecret string) {
	products := app.Group("/api/products")
	products.Get("", h.Product.List)
	products.Get("/:slug", h.Product.GetBySlug)

	// Stripe sends the browser here after its hosted payment page.
	app.Get("/checkout/:id/stripe-success", h.Checkout.StripeSuccess)

	api := app.Group("/api", middleware.NewAuthMiddleware(jwtSecret))

	orders := api.Group("/orders")
	orders.Post("/quote", h.Order.Quote)
	orders.Post("", h.Order.Create)
	orders.Get("/:id", h.Order.GetByID)
	orders.Post("/:id/paypal", h.Order.CreatePayPalOrder)
	orders.Post("/:id/paypal/capture", h.Order.ApprovePayPalOrder)
}
