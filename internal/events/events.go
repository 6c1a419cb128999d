package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventCouponRedeemed = "CouponRedeemed"
	EventCartPriced     = "CartPriced"

	TopicCartEvents = "cart.events"

	// Checkout completion events consumed by the poller.
	TopicCheckoutCompleted = "checkout.completed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually cart_id
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, correlationID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       MustMarshal(payload),
	}
}

type CouponRedeemedPayload struct {
	CartID     string `json:"cart_id"`
	CouponCode string `json:"coupon_code"`
	Owner      string `json:"owner"`
	Discount   string `json:"discount"`
}

type CartPricedPayload struct {
	CartID   string `json:"cart_id"`
	Owner    string `json:"owner"`
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// CheckoutCompletedPayload is the shape checkout publishes; only the owner is
// needed to clear the cart.
type CheckoutCompletedPayload struct {
	CheckoutID string `json:"checkout_id"`
	UserID     string `json:"user_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}
