package domain

// CartInput is the client-held cart snapshot submitted at checkout. Any
// price fields the client computed are absent on purpose: totals are always
// recomputed server-side.
type CartInput struct {
	Items             []CartItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress   *Address   `json:"shipping_address" validate:"required"`
	DeliveryDateIndex *int       `json:"delivery_date_index"`
	PaymentMethod     string     `json:"payment_method" validate:"required,oneof=PayPal Stripe CashOnDelivery"`
}

type CartItem struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Image     string  `json:"image"`
	Price     float64 `json:"price" validate:"gt=0"`
	Quantity  int32   `json:"quantity" validate:"gt=0"`
}
