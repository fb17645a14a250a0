package stripe_webhook

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/checkout"
)

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*checkout.WebhookResult, error)
}

type InvoiceService interface {
	ReconcileHostedCheckout(ctx context.Context, id int64, status domain.CheckoutStatus) error
	ReconcileCheckoutSession(ctx context.Context, sessionID string, status domain.CheckoutStatus) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
