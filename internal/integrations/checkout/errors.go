package checkout

import "errors"

var (
	// ErrCreateSession возвращается, когда Stripe не создал checkout-сессию
	ErrCreateSession = errors.New("checkout client: failed to create session")

	// ErrInvalidSignature возвращается при неверной подписи webhook
	ErrInvalidSignature = errors.New("checkout client: invalid webhook signature")

	// ErrInvalidPayload возвращается, когда тело webhook не удалось разобрать
	ErrInvalidPayload = errors.New("checkout client: invalid webhook payload")

	// ErrEmptyLineItems возвращается при попытке создать сессию без позиций
	ErrEmptyLineItems = errors.New("checkout client: session requires at least one line item")
)
