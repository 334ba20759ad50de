package reconcile

import "github.com/snapcal/billing/pkg/types"

// NextStatus is the payment state machine. It returns the status after
// applying the event to the current stored status, and whether the event
// causes a transition at all. Redelivered and out-of-order events are no-ops.
func NextStatus(current types.PaymentStatus, kind types.EventKind) (types.PaymentStatus, bool) {
	switch kind {
	case types.EventKindPaymentSucceeded:
		if current == types.PaymentStatusPending || current == types.PaymentStatusWaitingForCapture {
			return types.PaymentStatusSucceeded, true
		}
	case types.EventKindPaymentWaitingForCapture:
		if current == types.PaymentStatusPending {
			return types.PaymentStatusWaitingForCapture, true
		}
	case types.EventKindPaymentCanceled:
		if current == types.PaymentStatusPending || current == types.PaymentStatusWaitingForCapture {
			return types.PaymentStatusCanceled, true
		}
	case types.EventKindRefundSucceeded:
		if current == types.PaymentStatusSucceeded {
			return types.PaymentStatusRefunded, true
		}
	}
	return current, false
}
