package provider

// Wire types for the remote checkout provider. The provider exposes a single
// create-payment operation returning a redirect confirmation URL, and later
// reports status changes through webhook events.

type Amount struct {
	// Value is a decimal string in major units, e.g. "499.00".
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Confirmation struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url,omitempty"`
	// ConfirmationURL is set by the provider on the response: the page the
	// user is redirected to for checkout.
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type Card struct {
	Last4    string `json:"last4"`
	CardType string `json:"card_type"`
}

type PaymentMethod struct {
	Type string `json:"type"`
	// ID is the opaque token referencing a saved method, usable for
	// unattended renewal charges.
	ID    string `json:"id"`
	Saved bool   `json:"saved"`
	Title string `json:"title"`
	Card  *Card  `json:"card,omitempty"`
}

type CreatePaymentRequest struct {
	Amount      Amount        `json:"amount"`
	Capture     bool          `json:"capture"`
	Description string        `json:"description,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	// SavePaymentMethod must be omitted entirely (not sent as false) when
	// recurring mode is off.
	SavePaymentMethod *bool `json:"save_payment_method,omitempty"`
	// PaymentMethodID charges a previously saved method without a
	// confirmation step.
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type Payment struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	Amount        Amount            `json:"amount"`
	Confirmation  *Confirmation     `json:"confirmation,omitempty"`
	PaymentMethod *PaymentMethod    `json:"payment_method,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Event is the webhook envelope. ID is the event's unique id, distinct from
// Object.ID (the payment id): one payment can generate multiple events.
type Event struct {
	ID     string  `json:"id"`
	Event  string  `json:"event"`
	Object Payment `json:"object"`
}
