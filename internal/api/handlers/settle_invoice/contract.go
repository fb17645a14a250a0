package settle_invoice

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
)

type InvoiceService interface {
	GetByID(ctx context.Context, id int64, identity *int64, isStaff bool) (*models.InvoiceResponse, error)
	ConfirmInstantMobile(ctx context.Context, id int64) error
	ConfirmOnLocation(ctx context.Context, id int64) error
	BeginHostedCheckout(ctx context.Context, id int64) (*models.CheckoutResponse, error)
	SettleWithStoredCredit(ctx context.Context, id int64, creditRef string) error
	MarkPayOnLocation(ctx context.Context, id int64) error
	Decline(ctx context.Context, id int64, declinedBy *int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
