package metrics

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the billing core.
var (
	WebhookDispositions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_disposition_total",
		Help: "Webhook deliveries by final disposition (success, failed, duplicate).",
	}, []string{"disposition"})

	WebhookRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_rejected_total",
		Help: "Webhook requests rejected at the trust boundary, by cause.",
	}, []string{"cause"})

	ReconcileEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_reconcile_event_total",
		Help: "Events consumed by the reconciliation engine, by type.",
	}, []string{"event"})

	UsageDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_usage_denied_total",
		Help: "Usage increments refused because the daily limit was reached.",
	})

	RenewalCharges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_renewal_charge_total",
		Help: "Renewal charges started by the scheduler, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		WebhookDispositions,
		WebhookRejections,
		ReconcileEvents,
		UsageDenied,
		RenewalCharges,
	)
}
