package invoices

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	invoiceRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
	reservationRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
)

// Config параметры расчётов
type Config struct {
	HoldMinutes      int    // удержание для недоверенных плательщиков
	OverdueAfterDays int    // через сколько дней неоплаченный счёт доверенного плательщика просрочен
	Currency         string // валюта по умолчанию
}

// Service машина состояний счетов и способов оплаты
type Service struct {
	invoiceRepo     InvoiceRepository
	reservationRepo ReservationRepository
	reservations    ReservationService
	creditRepo      CreditRepository
	outboxRepo      OutboxRepository
	studentClient   StudentServiceClient
	checkoutClient  CheckoutClient
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	cfg             Config
	logger          Logger
}

// NewService создает новый экземпляр сервиса счетов
func NewService(
	invoiceRepo InvoiceRepository,
	reservationRepo ReservationRepository,
	reservations ReservationService,
	creditRepo CreditRepository,
	outboxRepo OutboxRepository,
	studentClient StudentServiceClient,
	checkoutClient CheckoutClient,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Service {
	if cfg.HoldMinutes <= 0 {
		cfg.HoldMinutes = domain.DefaultPaymentHoldMinutes
	}
	if cfg.OverdueAfterDays <= 0 {
		cfg.OverdueAfterDays = domain.DefaultOverdueAfterDays
	}
	return &Service{
		invoiceRepo:     invoiceRepo,
		reservationRepo: reservationRepo,
		reservations:    reservations,
		creditRepo:      creditRepo,
		outboxRepo:      outboxRepo,
		studentClient:   studentClient,
		checkoutClient:  checkoutClient,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		cfg:             cfg,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// CreateInvoice создает счёт, опционально привязанный к резервированию
// Сумма считается на сервере по позициям. Недоверенный плательщик получает дедлайн удержания
func (s *Service) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("CreateInvoice: reservation=%v, payer=%v, items=%d", req.ReservationID, req.PayerIdentity, len(req.LineItems))

	// 1. Валидация и пересчет суммы
	lineItems, amount, err := s.validateCreate(req)
	if err != nil {
		s.logger.Warn("CreateInvoice: validation failed: %v", err)
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.Currency
	}

	// 2. Уровень доверия плательщика
	trust := s.resolveTrust(ctx, req.PayerIdentity)

	now := s.timeProvider.Now()
	inv := &domain.Invoice{
		ReservationID:    req.ReservationID,
		PayerIdentity:    req.PayerIdentity,
		PayerEmail:       req.PayerEmail,
		Amount:           amount,
		Currency:         currency,
		LineItems:        lineItems,
		Status:           domain.InvoicePending,
		SettlementMethod: domain.MethodUnset,
	}
	if trust == domain.TrustUntrusted {
		deadline := now.Add(time.Duration(s.cfg.HoldMinutes) * time.Minute)
		inv.PaymentHoldDeadline = &deadline
	}

	// 3. Проверка резервирования и вставка в одной транзакции
	var created *domain.Invoice
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if req.ReservationID != nil {
			reservation, err := s.reservationRepo.GetByID(txCtx, *req.ReservationID)
			if err != nil {
				if errors.Is(err, reservationRepo.ErrReservationNotFound) {
					return ErrReservationNotFound
				}
				return fmt.Errorf("%w: CreateInvoice - get reservation: %w", ErrInternal, err)
			}
			if !reservation.IsActive() {
				s.logger.Warn("CreateInvoice: reservation id=%d has status=%s", reservation.ID, reservation.Status)
				return ErrInvalidState
			}

			_, err = s.invoiceRepo.GetActiveByReservation(txCtx, *req.ReservationID)
			if err == nil {
				return ErrActiveInvoiceExists
			}
			if !errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
				return fmt.Errorf("%w: CreateInvoice - get active invoice: %w", ErrInternal, err)
			}
		}

		created, err = s.invoiceRepo.Create(txCtx, inv)
		if err != nil {
			if errors.Is(err, invoiceRepo.ErrActiveInvoiceExists) {
				return ErrActiveInvoiceExists
			}
			return fmt.Errorf("%w: CreateInvoice - repository error: %w", ErrInternal, err)
		}

		return s.appendEvent(txCtx, domain.EventInvoiceCreated, created)
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("CreateInvoice: %v", err)
		} else {
			s.logger.Warn("CreateInvoice: %v", err)
		}
		return nil, err
	}

	s.logger.Info("CreateInvoice: created invoice id=%d, amount=%s %s, trust=%s",
		created.ID, created.Amount.StringFixed(2), created.Currency, trust)
	return models.FromDomainInvoice(created), nil
}

// GetByID возвращает счёт; клиент видит только свои счета, сотрудник любые
func (s *Service) GetByID(ctx context.Context, id int64, identity *int64, isStaff bool) (*models.InvoiceResponse, error) {
	s.logger.Info("GetByID: fetching invoice id=%d", id)

	inv, err := s.getInvoice(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}
	if !isStaff && inv.PayerIdentity != nil && (identity == nil || *identity != *inv.PayerIdentity) {
		s.logger.Warn("GetByID: access denied to invoice id=%d", id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainInvoice(inv), nil
}

// ListByPayer счета плательщика, новые первыми
func (s *Service) ListByPayer(ctx context.Context, identity int64) (*models.InvoiceListResponse, error) {
	s.logger.Info("ListByPayer: identity=%d", identity)

	invoices, err := s.invoiceRepo.ListByPayer(ctx, identity)
	if err != nil {
		s.logger.Error("ListByPayer: repository error for identity=%d: %v", identity, err)
		return nil, fmt.Errorf("%w: ListByPayer - repository error: %w", ErrInternal, err)
	}
	return models.FromDomainInvoiceList(invoices), nil
}

func (s *Service) validateCreate(req *models.CreateInvoiceRequest) ([]domain.LineItem, decimal.Decimal, error) {
	if req.ReservationID != nil && *req.ReservationID <= 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: reservationId must be positive", ErrInvalidInput)
	}
	if req.PayerIdentity == nil && req.PayerEmail == nil {
		return nil, decimal.Zero, fmt.Errorf("%w: payer identity or email is required", ErrInvalidInput)
	}
	if req.PayerEmail != nil {
		if _, err := mail.ParseAddress(*req.PayerEmail); err != nil {
			return nil, decimal.Zero, fmt.Errorf("%w: payerEmail is invalid", ErrInvalidInput)
		}
	}
	if currency := strings.TrimSpace(req.Currency); currency != "" && len(currency) != 3 {
		return nil, decimal.Zero, fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidInput)
	}

	if len(req.LineItems) == 0 || len(req.LineItems) > domain.MaxLineItems {
		return nil, decimal.Zero, fmt.Errorf("%w: invoice must have between 1 and %d line items", ErrInvalidInput, domain.MaxLineItems)
	}
	for i, item := range req.LineItems {
		description := strings.TrimSpace(item.Description)
		if description == "" || len(description) > domain.MaxLineItemDescriptionLen {
			return nil, decimal.Zero, fmt.Errorf("%w: line item #%d: invalid description", ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: line item #%d: quantity must be positive", ErrInvalidInput, i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: line item #%d: unitPrice must not be negative", ErrInvalidInput, i)
		}
	}

	lineItems := models.ToDomainLineItems(req.LineItems)
	amount := domain.SumLineItems(lineItems)
	if !amount.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("%w: invoice amount must be positive", ErrInvalidInput)
	}
	if req.Amount != nil && !req.Amount.Equal(amount) {
		return nil, decimal.Zero, fmt.Errorf("%w: amount %s does not match line items total %s",
			ErrInvalidInput, req.Amount.StringFixed(2), amount.StringFixed(2))
	}

	return lineItems, amount, nil
}

// resolveTrust зачисленный ученик доверенный; гость и недоступный сервис учеников дают untrusted
func (s *Service) resolveTrust(ctx context.Context, identity *int64) domain.TrustLevel {
	if identity == nil {
		return domain.TrustUntrusted
	}

	enrolled, err := s.studentClient.IsEnrolled(ctx, *identity)
	if err != nil {
		s.logger.Warn("resolveTrust: student service unavailable for identity=%d, treating as untrusted: %v", *identity, err)
		return domain.TrustUntrusted
	}
	if enrolled {
		return domain.TrustTrusted
	}
	return domain.TrustUntrusted
}

func (s *Service) getInvoice(ctx context.Context, op string, id int64) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			s.logger.Warn("%s: invoice id=%d not found", op, id)
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("%s: repository error for invoice id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return inv, nil
}

func (s *Service) appendEvent(ctx context.Context, eventType domain.EventType, inv *domain.Invoice) error {
	event, err := domain.NewEvent(eventType, inv.ID, inv.CancellationReason,
		domain.NewInvoiceEventPayload(inv), s.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if err := s.outboxRepo.Append(ctx, event); err != nil {
		return fmt.Errorf("%w: append %s: %w", ErrInternal, eventType, err)
	}
	return nil
}
