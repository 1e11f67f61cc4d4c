package pricing

// DeliveryOption is one entry of the ranked delivery catalog. A
// FreeShippingMinPrice of zero disables the free-shipping threshold.
type DeliveryOption struct {
	Name                 string  `json:"name"`
	DaysToDeliver        int     `json:"days_to_deliver"`
	ShippingPrice        float64 `json:"shipping_price"`
	FreeShippingMinPrice float64 `json:"free_shipping_min_price"`
}

// DefaultDeliveryOptions returns the storefront catalog. The last entry is
// the standard option used when the shopper has not picked one.
func DefaultDeliveryOptions() []DeliveryOption {
	return []DeliveryOption{
		{Name: "Tomorrow", DaysToDeliver: 1, ShippingPrice: 12.9, FreeShippingMinPrice: 0},
		{Name: "Next 3 Days", DaysToDeliver: 3, ShippingPrice: 6.9, FreeShippingMinPrice: 0},
		{Name: "Next 5 Days", DaysToDeliver: 5, ShippingPrice: 4.9, FreeShippingMinPrice: 35},
	}
}
