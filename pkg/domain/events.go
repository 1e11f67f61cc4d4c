package domain

import "time"

// Events published on the order_events topic. The envelope around them
// carries the event name and the outbox-assigned event id.

type OrderCreatedEvent struct {
	OrderID              string    `json:"order_id"`
	UserID               string    `json:"user_id"`
	Email                string    `json:"email"`
	TotalPrice           float64   `json:"total_price"`
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date"`
}

type OrderPaidEvent struct {
	OrderID       string    `json:"order_id"`
	Email         string    `json:"email"`
	PaymentID     string    `json:"payment_id"`
	PaymentStatus string    `json:"payment_status"`
	AmountPaid    float64   `json:"amount_paid"`
	TotalPrice    float64   `json:"total_price"`
	PaidAt        time.Time `json:"paid_at"`
}
