package tests

import (
	"errors"
	"sync"
	"time"

	"github.com/greenmart/storefront/internal/order/repository"
	"github.com/greenmart/storefront/internal/order/service"
)

func (s *IntegrationTestSuite) TestApprovePayPal_Success() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	sessionID, err := s.OrderService.CreatePayPalOrder(s.Ctx, orderID)
	s.Require().NoError(err)
	s.Require().Equal("PAYPAL-SESSION-1", sessionID)

	err = s.OrderService.ApprovePayPalOrder(s.Ctx, orderID, sessionID)
	s.Require().NoError(err)

	query := `
		SELECT is_paid, paid_at, payment_id, payment_status, payer_email
		FROM orders
		WHERE id = $1
	`

	var (
		isPaid                               bool
		paidAt                               *time.Time
		paymentID, paymentStatus, payerEmail string
	)
	err = s.DbPool.QueryRow(s.Ctx, query, orderID).
		Scan(&isPaid, &paidAt, &paymentID, &paymentStatus, &payerEmail)
	s.Require().NoError(err)

	s.Require().True(isPaid)
	s.Require().NotNil(paidAt)
	s.Require().Equal(sessionID, paymentID)
	s.Require().Equal("COMPLETED", paymentStatus)
	s.Require().Equal("payer@example.com", payerEmail)

	publishedAtQuery := `
		SELECT published_at
		FROM outbox
		WHERE aggregate_id = $1 AND event_type = 'OrderPaid'
	`

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err := s.DbPool.QueryRow(s.Ctx, publishedAtQuery, orderID).
			Scan(&publishedAt)
		if err != nil || publishedAt == nil {
			return false
		}

		return true
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestApprovePayPal_WrongSession() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	_, err := s.OrderService.CreatePayPalOrder(s.Ctx, orderID)
	s.Require().NoError(err)

	err = s.OrderService.ApprovePayPalOrder(s.Ctx, orderID, "SOMEONE-ELSES-SESSION")
	s.Require().Error(err)
	s.Require().True(errors.Is(err, service.ErrPaymentVerification))

	var isPaid bool
	err = s.DbPool.QueryRow(s.Ctx, `SELECT is_paid FROM orders WHERE id = $1`, orderID).
		Scan(&isPaid)
	s.Require().NoError(err)
	s.Require().False(isPaid)
}

func (s *IntegrationTestSuite) TestStripeFallback_Success() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	s.Stripe.metadata = map[string]string{"orderId": orderID}

	err := s.OrderService.MarkPaidFromStripeIntent(s.Ctx, orderID, "pi_123")
	s.Require().NoError(err)

	var isPaid bool
	err = s.DbPool.QueryRow(s.Ctx, `SELECT is_paid FROM orders WHERE id = $1`, orderID).
		Scan(&isPaid)
	s.Require().NoError(err)
	s.Require().True(isPaid)
}

func (s *IntegrationTestSuite) TestStripeFallback_MetadataMismatch() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	s.Stripe.metadata = map[string]string{"orderId": "some-other-order"}

	err := s.OrderService.MarkPaidFromStripeIntent(s.Ctx, orderID, "pi_123")
	s.Require().Error(err)
	s.Require().True(errors.Is(err, repository.ErrOrderNotFound))
}

func (s *IntegrationTestSuite) TestStripeFallback_Idempotent() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	s.Stripe.metadata = map[string]string{"orderId": orderID}

	err := s.OrderService.MarkPaidFromStripeIntent(s.Ctx, orderID, "pi_123")
	s.Require().NoError(err)

	var firstPaidAt time.Time
	err = s.DbPool.QueryRow(s.Ctx, `SELECT paid_at FROM orders WHERE id = $1`, orderID).
		Scan(&firstPaidAt)
	s.Require().NoError(err)

	err = s.OrderService.MarkPaidFromStripeIntent(s.Ctx, orderID, "pi_123")
	s.Require().NoError(err)

	var secondPaidAt time.Time
	err = s.DbPool.QueryRow(s.Ctx, `SELECT paid_at FROM orders WHERE id = $1`, orderID).
		Scan(&secondPaidAt)
	s.Require().NoError(err)
	s.Require().Equal(firstPaidAt, secondPaidAt)

	var eventCount int
	err = s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND event_type = 'OrderPaid'`,
		orderID,
	).Scan(&eventCount)
	s.Require().NoError(err)
	s.Require().Equal(1, eventCount)
}

func (s *IntegrationTestSuite) TestMarkPaid_ConcurrentConfirmations() {
	userID := s.seedUser("test@example.com")
	orderID := s.createOrder(userID)

	s.Stripe.metadata = map[string]string{"orderId": orderID}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.OrderService.MarkPaidFromStripeIntent(s.Ctx, orderID, "pi_123")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}

	var eventCount int
	err := s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND event_type = 'OrderPaid'`,
		orderID,
	).Scan(&eventCount)
	s.Require().NoError(err)
	s.Require().Equal(1, eventCount)

	var isPaid bool
	err = s.DbPool.QueryRow(s.Ctx, `SELECT is_paid FROM orders WHERE id = $1`, orderID).
		Scan(&isPaid)
	s.Require().NoError(err)
	s.Require().True(isPaid)
}
