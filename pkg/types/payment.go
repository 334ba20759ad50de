package types

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusCanceled          PaymentStatus = "canceled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// Terminal statuses are sinks: once reached, no webhook event moves the
// payment out of them (refund of a succeeded payment being the one exception
// handled explicitly by the reconciliation engine).
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusCanceled, PaymentStatusRefunded:
		return true
	}
	return false
}

// BillingMode records whether a payment requested card saving for future
// unattended renewal charges. It is stamped into the payment metadata at
// creation time for audit.
type BillingMode string

const (
	BillingModeOneTime   BillingMode = "one_time"
	BillingModeRecurring BillingMode = "recurring"
)
