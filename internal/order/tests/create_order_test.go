package tests

import (
	"time"
)

func (s *IntegrationTestSuite) TestCreateOrder_Success() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	orderQuery := `
		SELECT items_price, shipping_price, tax_price, total_price, is_paid
		FROM orders
		WHERE id = $1
	`

	var (
		itemsPrice, shippingPrice, taxPrice, totalPrice float64
		isPaid                                          bool
	)
	err := s.DbPool.QueryRow(s.Ctx, orderQuery, orderID).
		Scan(&itemsPrice, &shippingPrice, &taxPrice, &totalPrice, &isPaid)
	s.Require().NoError(err)

	// 25.00 in items rides the default option (4.90, free from 35.00).
	s.Require().Equal(25.00, itemsPrice)
	s.Require().Equal(4.90, shippingPrice)
	s.Require().Equal(3.75, taxPrice)
	s.Require().Equal(33.65, totalPrice)
	s.Require().False(isPaid)

	var itemCount int
	err = s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = $1`, orderID).
		Scan(&itemCount)
	s.Require().NoError(err)
	s.Require().Equal(2, itemCount)

	outboxQuery := `
		SELECT id
		FROM outbox
		WHERE aggregate_id = $1 AND event_type = 'OrderCreated'
	`

	var outboxId int64
	err = s.DbPool.QueryRow(s.Ctx, outboxQuery, orderID).
		Scan(&outboxId)
	s.Require().NoError(err)
	s.Require().NotNil(outboxId)

	publishedAtQuery := `
		SELECT published_at
		FROM outbox
		WHERE aggregate_id = $1 AND event_type = 'OrderCreated'
	`

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err = s.DbPool.QueryRow(s.Ctx, publishedAtQuery, orderID).
			Scan(&publishedAt)
		if err != nil || publishedAt == nil {
			return false
		}

		return true
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestCreateOrder_RoundTrip() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	order, err := s.OrderService.GetByID(s.Ctx, orderID)
	s.Require().NoError(err)

	s.Require().Equal(userID, order.UserID)
	s.Require().Equal("PayPal", order.PaymentMethod)
	s.Require().Equal("Jane Roe", order.ShippingAddress.FullName)
	s.Require().Len(order.Items, 2)
	s.Require().Nil(order.PaymentResult)
	s.Require().False(order.ExpectedDeliveryDate.IsZero())
}
