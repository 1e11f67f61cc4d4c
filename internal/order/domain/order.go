package domain

import "time"

type Order struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"user_id"`
	PaymentMethod   string      `db:"payment_method" json:"payment_method"`
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shipping_address"`

	ItemsPrice    float64 `db:"items_price" json:"items_price"`
	ShippingPrice float64 `db:"shipping_price" json:"shipping_price"`
	TaxPrice      float64 `db:"tax_price" json:"tax_price"`
	TotalPrice    float64 `db:"total_price" json:"total_price"`

	DeliveryDateIndex    int       `db:"delivery_date_index" json:"delivery_date_index"`
	ExpectedDeliveryDate time.Time `db:"expected_delivery_date" json:"expected_delivery_date"`

	IsPaid        bool           `db:"is_paid" json:"is_paid"`
	PaidAt        *time.Time     `db:"paid_at" json:"paid_at"`
	PaymentResult *PaymentResult `json:"payment_result"`

	IsDelivered bool       `db:"is_delivered" json:"is_delivered"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Name      string  `db:"name" json:"name"`
	Image     string  `db:"image" json:"image"`
	Price     float64 `db:"price" json:"price"`
	Quantity  int32   `db:"quantity" json:"quantity"`
}

type Address struct {
	FullName   string `json:"full_name" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
}

// PaymentResult is what the payment provider reported back. A record with an
// empty Status is a pending marker attached when the remote payment session
// is created.
type PaymentResult struct {
	ID         string  `db:"payment_id" json:"id"`
	Status     string  `db:"payment_status" json:"status"`
	PayerEmail string  `db:"payer_email" json:"payer_email"`
	AmountPaid float64 `db:"amount_paid" json:"amount_paid"`
}
