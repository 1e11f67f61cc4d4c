package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const taxRate = 0.15

// Item is a cart line reduced to what pricing needs.
type Item struct {
	Price    float64
	Quantity int32
}

type QuoteRequest struct {
	Items []Item
	// HasShippingAddress gates shipping and tax: without a destination there
	// is no shipping price and no tax jurisdiction.
	HasShippingAddress bool
	// DeliveryDateIndex selects a catalog entry; nil means the standard
	// (last) option.
	DeliveryDateIndex *int
}

// Quote is the authoritative price breakdown. ShippingPrice and TaxPrice are
// nil until a shipping address (and, for shipping, a resolved delivery
// option) exists, so the storefront can render "enter address to see
// shipping".
type Quote struct {
	ItemsPrice             float64          `json:"items_price"`
	ShippingPrice          *float64         `json:"shipping_price"`
	TaxPrice               *float64         `json:"tax_price"`
	TotalPrice             float64          `json:"total_price"`
	DeliveryDateIndex      int              `json:"delivery_date_index"`
	ExpectedDeliveryDate   time.Time        `json:"expected_delivery_date"`
	AvailableDeliveryDates []DeliveryOption `json:"available_delivery_dates"`
}

// Calculator derives totals from cart lines. It is pure: no I/O, and
// deterministic for a fixed catalog and clock.
type Calculator struct {
	catalog []DeliveryOption
	now     func() time.Time
}

func NewCalculator(catalog []DeliveryOption) *Calculator {
	if len(catalog) == 0 {
		catalog = DefaultDeliveryOptions()
	}

	return &Calculator{
		catalog: catalog,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

func (c *Calculator) DeliveryOptions() []DeliveryOption {
	return c.catalog
}

func (c *Calculator) Quote(req QuoteRequest) Quote {
	itemsPrice := decimal.Zero
	for _, item := range req.Items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsPrice = itemsPrice.Add(line)
	}
	itemsPrice = itemsPrice.Round(2)

	index := len(c.catalog) - 1
	if req.DeliveryDateIndex != nil {
		index = *req.DeliveryDateIndex
	}

	var option *DeliveryOption
	if index >= 0 && index < len(c.catalog) {
		option = &c.catalog[index]
	}

	var shippingPrice *decimal.Decimal
	if req.HasShippingAddress && option != nil {
		price := decimal.NewFromFloat(option.ShippingPrice)
		threshold := decimal.NewFromFloat(option.FreeShippingMinPrice)

		if threshold.IsPositive() && itemsPrice.GreaterThanOrEqual(threshold) {
			price = decimal.Zero
		}

		rounded := price.Round(2)
		shippingPrice = &rounded
	}

	var taxPrice *decimal.Decimal
	if req.HasShippingAddress {
		tax := itemsPrice.Mul(decimal.NewFromFloat(taxRate)).Round(2)
		taxPrice = &tax
	}

	total := itemsPrice
	if shippingPrice != nil {
		total = total.Add(*shippingPrice)
	}
	if taxPrice != nil {
		total = total.Add(*taxPrice)
	}
	total = total.Round(2)

	quote := Quote{
		ItemsPrice:             toFloat(itemsPrice),
		TotalPrice:             toFloat(total),
		DeliveryDateIndex:      index,
		AvailableDeliveryDates: c.catalog,
	}
	if shippingPrice != nil {
		v := toFloat(*shippingPrice)
		quote.ShippingPrice = &v
	}
	if taxPrice != nil {
		v := toFloat(*taxPrice)
		quote.TaxPrice = &v
	}
	if option != nil {
		quote.ExpectedDeliveryDate = c.now().AddDate(0, 0, option.DaysToDeliver)
	}

	return quote
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
