package service

import "errors"

var (
	ErrUnauthenticated     = errors.New("user not authenticated")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrPaymentPending      = errors.New("payment not completed")
	ErrPaymentProvider     = errors.New("payment provider unavailable")
)

// ValidationError reports the first schema violation of a submitted cart.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
