package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/greenmart/storefront/pkg/config"
	"github.com/greenmart/storefront/pkg/domain"
	"github.com/greenmart/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendOrderConfirmation(ctx context.Context, to string, event domain.OrderCreatedEvent) error
	SendPurchaseReceipt(ctx context.Context, to string, event domain.OrderPaidEvent) error
}

type smtpSender struct {
	from       string
	senderName string
	password   string
	host       string
	port       string
	siteURL    string
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewSMTPSender(cfg config.SMTP, siteURL string, logger *zap.Logger) Sender {
	return &smtpSender{
		from:       cfg.User,
		senderName: cfg.SenderName,
		password:   cfg.Password,
		host:       cfg.Host,
		port:       cfg.Port,
		siteURL:    siteURL,
		logger:     logger,
		tracer:     otel.Tracer("notification/email"),
	}
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, to string, event domain.OrderCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendOrderConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.String("order.id", event.OrderID),
	)

	subject := fmt.Sprintf("Subject: %s order confirmation #%s\n", s.senderName, event.OrderID)
	body := fmt.Sprintf(`
		<h1>Thank you for your order!</h1>
		<p>We received your order <strong>#%s</strong> for a total of %.2f.</p>
		<p>Expected delivery: %s</p>
		<a href="%s/account/orders/%s">View your order</a>
	`, event.OrderID, event.TotalPrice, event.ExpectedDeliveryDate.Format("Monday, 02 Jan 2006"), s.siteURL, event.OrderID)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending order confirmation email",
		zap.String("to", to),
		zap.String("order_id", event.OrderID),
	)

	if err := s.send(to, subject, body); err != nil {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending order confirmation email",
			zap.String("to", to),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)

		return err
	}

	mylogger.Info(ctx, s.logger, "Order confirmation email sent successfully")
	return nil
}

func (s *smtpSender) SendPurchaseReceipt(ctx context.Context, to string, event domain.OrderPaidEvent) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendPurchaseReceipt")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.String("order.id", event.OrderID),
	)

	subject := fmt.Sprintf("Subject: %s payment receipt for order #%s\n", s.senderName, event.OrderID)
	body := fmt.Sprintf(`
		<h1>Payment received</h1>
		<p>Your payment of %.2f for order <strong>#%s</strong> was completed on %s.</p>
		<p>Payment reference: %s</p>
		<a href="%s/account/orders/%s">View your order</a>
	`, event.AmountPaid, event.OrderID, event.PaidAt.Format("02 Jan 2006 15:04"), event.PaymentID, s.siteURL, event.OrderID)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending purchase receipt email",
		zap.String("to", to),
		zap.String("order_id", event.OrderID),
	)

	if err := s.send(to, subject, body); err != nil {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending purchase receipt email",
			zap.String("to", to),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)

		return err
	}

	mylogger.Info(ctx, s.logger, "Purchase receipt email sent successfully")
	return nil
}

func (s *smtpSender) send(to, subject, body string) error {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"

	msg := []byte(subject + mime + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %v", err)
	}

	return nil
}
