package status

import (
	"context"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// Notifier delivers SMS notifications to applicants. Failures are
// logged by the caller, never propagated into the status change.
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) error
}

// DeliveryService creates delivery-tracking records when an application
// is approved.
type DeliveryService interface {
	CreateDeliveryRecord(ctx context.Context, sessionID string, details session.Document) error
}

// PaymentInitiator starts a payment flow, e.g. for a paid credit
// report.
type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, userIdentifier string, amount float64, currency, reason string) error
}

// NopNotifier discards notifications; used when no SMS transport is
// configured.
type NopNotifier struct{}

func (NopNotifier) SendSMS(context.Context, string, string) error { return nil }

// NopDeliveryService discards delivery records.
type NopDeliveryService struct{}

func (NopDeliveryService) CreateDeliveryRecord(context.Context, string, session.Document) error {
	return nil
}

// NopPaymentInitiator discards payment requests.
type NopPaymentInitiator struct{}

func (NopPaymentInitiator) InitiatePayment(context.Context, string, float64, string, string) error {
	return nil
}
