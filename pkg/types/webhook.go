package types

// EventKind is the set of provider notification types the reconciliation
// engine understands. Keeping this a closed enum (instead of branching on the
// raw event string at every call site) makes new event types a compile-time
// checked addition.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindPaymentSucceeded
	EventKindPaymentWaitingForCapture
	EventKindPaymentCanceled
	EventKindRefundSucceeded
)

const (
	eventPaymentSucceeded         = "payment.succeeded"
	eventPaymentWaitingForCapture = "payment.waiting_for_capture"
	eventPaymentCanceled          = "payment.canceled"
	eventRefundSucceeded          = "refund.succeeded"
)

func ParseEventKind(s string) EventKind {
	switch s {
	case eventPaymentSucceeded:
		return EventKindPaymentSucceeded
	case eventPaymentWaitingForCapture:
		return EventKindPaymentWaitingForCapture
	case eventPaymentCanceled:
		return EventKindPaymentCanceled
	case eventRefundSucceeded:
		return EventKindRefundSucceeded
	}
	return EventKindUnknown
}

func (k EventKind) String() string {
	switch k {
	case EventKindPaymentSucceeded:
		return eventPaymentSucceeded
	case EventKindPaymentWaitingForCapture:
		return eventPaymentWaitingForCapture
	case EventKindPaymentCanceled:
		return eventPaymentCanceled
	case EventKindRefundSucceeded:
		return eventRefundSucceeded
	}
	return "unknown"
}

// WebhookDisposition is the per-delivery outcome recorded by the gateway.
type WebhookDisposition string

const (
	WebhookDispositionReceived   WebhookDisposition = "received"
	WebhookDispositionProcessing WebhookDisposition = "processing"
	WebhookDispositionSuccess    WebhookDisposition = "success"
	WebhookDispositionFailed     WebhookDisposition = "failed"
	WebhookDispositionDuplicate  WebhookDisposition = "duplicate"
)
