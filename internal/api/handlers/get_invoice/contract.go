package get_invoice

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
)

type InvoiceService interface {
	GetByID(ctx context.Context, id int64, identity *int64, isStaff bool) (*models.InvoiceResponse, error)
	ListByPayer(ctx context.Context, identity int64) (*models.InvoiceListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
