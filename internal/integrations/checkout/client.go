package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

const (
	metadataInvoiceID = "invoice_id"

	// Stripe принимает expires_at в диапазоне [30 минут, 24 часа] от момента создания
	minSessionLifetime = 31 * time.Minute
	maxSessionLifetime = 23*time.Hour + 59*time.Minute
)

// Client клиент Stripe Checkout
type Client struct {
	api *client.API
	cfg Config
	log Logger
	now func() time.Time
}

// NewClient создает клиент с бэкендами Stripe по умолчанию
func NewClient(cfg Config, log Logger) *Client {
	return NewClientWithBackends(cfg, nil, log)
}

// NewClientWithBackends создает клиент с явно заданными бэкендами (используется в тестах)
func NewClientWithBackends(cfg Config, backends *stripe.Backends, log Logger) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	return &Client{
		api: api,
		cfg: cfg,
		log: log,
		now: time.Now,
	}
}

// CreateSession создает checkout-сессию для счёта
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if len(req.LineItems) == 0 {
		return nil, ErrEmptyLineItems
	}

	currency := strings.ToLower(req.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Description),
				},
				UnitAmount: stripe.Int64(minorUnits(item.UnitPrice)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	expiresAt := c.sessionExpiry(req.HoldUntil)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.InvoiceID, 10)),
		LineItems:         lineItems,
		ExpiresAt:         stripe.Int64(expiresAt.Unix()),
	}
	if req.PayerEmail != nil && *req.PayerEmail != "" {
		params.CustomerEmail = req.PayerEmail
	}
	params.AddMetadata(metadataInvoiceID, strconv.FormatInt(req.InvoiceID, 10))
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		c.log.Error("Stripe checkout session creation failed for invoice_id=%d: %v", req.InvoiceID, err)
		return nil, fmt.Errorf("%w: invoice_id=%d: %v", ErrCreateSession, req.InvoiceID, err)
	}

	c.log.Info("Created Stripe checkout session %s for invoice_id=%d", session.ID, req.InvoiceID)

	return &Session{
		ID:          session.ID,
		RedirectURL: session.URL,
		ExpiresAt:   expiresAt,
	}, nil
}

// ParseWebhook проверяет подпись и переводит событие Stripe в статус оплаты счёта
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	if !strings.HasPrefix(result.EventType, "checkout.session.") {
		return result, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrInvalidPayload, event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	result.SessionID = session.ID
	result.Relevant = session.ID != ""

	// Без метаданных счёт ищется по ID сессии
	if invoiceID, err := strconv.ParseInt(session.Metadata[metadataInvoiceID], 10, 64); err == nil {
		result.InvoiceID = invoiceID
	} else {
		c.log.Warn("Stripe event %s without invoice metadata, session=%s", event.ID, session.ID)
	}

	switch result.EventType {
	case "checkout.session.completed":
		// Для асинхронных способов оплаты completed приходит раньше самих денег
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
			result.Status = domain.CheckoutPaid
		} else {
			result.Status = domain.CheckoutOpen
		}
	case "checkout.session.async_payment_succeeded":
		result.Status = domain.CheckoutPaid
	case "checkout.session.async_payment_failed":
		result.Status = domain.CheckoutFailed
	default:
		result.Status = domain.CheckoutOpen
	}

	return result, nil
}

// sessionExpiry время жизни сессии: не дольше удержания, но в пределах, которые допускает Stripe
func (c *Client) sessionExpiry(holdUntil *time.Time) time.Time {
	now := c.now()
	earliest := now.Add(minSessionLifetime)
	latest := now.Add(maxSessionLifetime)

	if holdUntil == nil || holdUntil.After(latest) {
		return latest
	}
	if holdUntil.Before(earliest) {
		return earliest
	}
	return *holdUntil
}

// minorUnits сумма в минимальных единицах валюты (центах)
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
