package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snapcal/billing/pkg/types"
)

func TestNextStatus_AllTransitions(t *testing.T) {
	tests := []struct {
		name       string
		current    types.PaymentStatus
		kind       types.EventKind
		want       types.PaymentStatus
		transition bool
	}{
		{name: "pending + succeeded", current: types.PaymentStatusPending, kind: types.EventKindPaymentSucceeded, want: types.PaymentStatusSucceeded, transition: true},
		{name: "waiting + succeeded", current: types.PaymentStatusWaitingForCapture, kind: types.EventKindPaymentSucceeded, want: types.PaymentStatusSucceeded, transition: true},
		{name: "pending + waiting_for_capture", current: types.PaymentStatusPending, kind: types.EventKindPaymentWaitingForCapture, want: types.PaymentStatusWaitingForCapture, transition: true},
		{name: "pending + canceled", current: types.PaymentStatusPending, kind: types.EventKindPaymentCanceled, want: types.PaymentStatusCanceled, transition: true},
		{name: "waiting + canceled", current: types.PaymentStatusWaitingForCapture, kind: types.EventKindPaymentCanceled, want: types.PaymentStatusCanceled, transition: true},
		{name: "succeeded + refund", current: types.PaymentStatusSucceeded, kind: types.EventKindRefundSucceeded, want: types.PaymentStatusRefunded, transition: true},

		// Redelivery of an already-applied transition is a no-op.
		{name: "succeeded + succeeded redelivery", current: types.PaymentStatusSucceeded, kind: types.EventKindPaymentSucceeded, want: types.PaymentStatusSucceeded},
		{name: "canceled + canceled redelivery", current: types.PaymentStatusCanceled, kind: types.EventKindPaymentCanceled, want: types.PaymentStatusCanceled},
		{name: "refunded + refund redelivery", current: types.PaymentStatusRefunded, kind: types.EventKindRefundSucceeded, want: types.PaymentStatusRefunded},

		// Out-of-order events never move a payment backwards.
		{name: "succeeded + waiting_for_capture out of order", current: types.PaymentStatusSucceeded, kind: types.EventKindPaymentWaitingForCapture, want: types.PaymentStatusSucceeded},
		{name: "succeeded + canceled out of order", current: types.PaymentStatusSucceeded, kind: types.EventKindPaymentCanceled, want: types.PaymentStatusSucceeded},
		{name: "canceled + succeeded out of order", current: types.PaymentStatusCanceled, kind: types.EventKindPaymentSucceeded, want: types.PaymentStatusCanceled},
		{name: "refunded + succeeded out of order", current: types.PaymentStatusRefunded, kind: types.EventKindPaymentSucceeded, want: types.PaymentStatusRefunded},

		// Refund only applies to a succeeded payment.
		{name: "pending + refund", current: types.PaymentStatusPending, kind: types.EventKindRefundSucceeded, want: types.PaymentStatusPending},
		{name: "canceled + refund", current: types.PaymentStatusCanceled, kind: types.EventKindRefundSucceeded, want: types.PaymentStatusCanceled},

		{name: "unknown kind is a no-op", current: types.PaymentStatusPending, kind: types.EventKindUnknown, want: types.PaymentStatusPending},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, transitioned := NextStatus(tc.current, tc.kind)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.transition, transitioned)
		})
	}
}

func TestNextStatus_TerminalStatesAreSinks(t *testing.T) {
	terminals := []types.PaymentStatus{
		types.PaymentStatusCanceled,
		types.PaymentStatusRefunded,
	}
	kinds := []types.EventKind{
		types.EventKindPaymentSucceeded,
		types.EventKindPaymentWaitingForCapture,
		types.EventKindPaymentCanceled,
		types.EventKindRefundSucceeded,
	}
	for _, st := range terminals {
		for _, k := range kinds {
			got, transitioned := NextStatus(st, k)
			if st == types.PaymentStatusCanceled && k == types.EventKindPaymentCanceled {
				continue // redelivery case covered above
			}
			assert.Equal(t, st, got, "%s + %s", st, k)
			assert.False(t, transitioned, "%s + %s", st, k)
		}
	}
}
