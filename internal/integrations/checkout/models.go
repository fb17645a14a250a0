package checkout

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// Config параметры Stripe Checkout
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// SessionRequest данные для создания checkout-сессии
type SessionRequest struct {
	InvoiceID  int64
	Currency   string
	PayerEmail *string
	LineItems  []domain.LineItem
	HoldUntil  *time.Time // дедлайн удержания; сессия не должна его переживать
}

// Session созданная checkout-сессия
type Session struct {
	ID          string
	RedirectURL string
	ExpiresAt   time.Time
}

// WebhookResult разобранное событие Stripe
// Relevant == false для событий, не влияющих на счёт
type WebhookResult struct {
	EventID   string
	EventType string
	SessionID string
	InvoiceID int64
	Status    domain.CheckoutStatus
	Relevant  bool
}
