package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snapcal/billing/internal/platform/provider"
	"github.com/snapcal/billing/pkg/types"
)

// ErrMalformedEvent marks a payload that cannot be decoded into a provider
// event envelope. The gateway answers 400 for these.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is a validated provider notification, decoupled from the wire
// envelope.
type Event struct {
	Kind              types.EventKind
	EventID           string
	EventType         string
	ProviderPaymentID string
	// PaymentMethod is present when the provider saved a card during this
	// payment.
	PaymentMethod *provider.PaymentMethod
}

// DecodeEvent parses and validates the webhook envelope. An unrecognized
// event type still decodes (Kind = unknown) so it can be recorded.
func DecodeEvent(raw []byte) (*Event, error) {
	var env provider.Event
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.ID == "" || env.Event == "" || env.Object.ID == "" {
		return nil, fmt.Errorf("%w: missing id, event or object.id", ErrMalformedEvent)
	}
	return &Event{
		Kind:              types.ParseEventKind(env.Event),
		EventID:           env.ID,
		EventType:         env.Event,
		ProviderPaymentID: env.Object.ID,
		PaymentMethod:     env.Object.PaymentMethod,
	}, nil
}
