package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/snapcal/billing/internal/platform/provider"
	"github.com/snapcal/billing/pkg/types"
)

// SanitizeReturnURL enforces the post-payment redirect allowlist. Anything
// that does not parse, is not http(s), or points at a host outside the
// allowed domains is replaced with the default.
func SanitizeReturnURL(raw string, allowedDomains []string, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fallback
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range allowedDomains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return raw
		}
	}
	return fallback
}

// FormatAmount renders a minor-unit price as the provider's decimal string,
// e.g. 49900 -> "499.00".
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// BuildPayload constructs the provider request for an interactive checkout.
// When card saving is not requested the field is omitted entirely: accounts
// without the recurring feature reject an explicit value.
func BuildPayload(plan *types.Plan, returnURL string, savePaymentMethod bool, localPaymentID string) *provider.CreatePaymentRequest {
	req := &provider.CreatePaymentRequest{
		Amount: provider.Amount{
			Value:    FormatAmount(plan.Price),
			Currency: plan.Currency,
		},
		Capture:     true,
		Description: plan.Title,
		Confirmation: &provider.Confirmation{
			Type:      "redirect",
			ReturnURL: returnURL,
		},
		Metadata: map[string]string{
			"payment_id": localPaymentID,
			"plan_code":  string(plan.Code),
		},
	}
	if savePaymentMethod {
		req.SavePaymentMethod = lo.ToPtr(true)
	}
	return req
}

// BuildRecurringPayload constructs the unattended renewal charge against a
// saved payment method. No confirmation step is involved.
func BuildRecurringPayload(plan *types.Plan, paymentMethodToken, localPaymentID string) *provider.CreatePaymentRequest {
	return &provider.CreatePaymentRequest{
		Amount: provider.Amount{
			Value:    FormatAmount(plan.Price),
			Currency: plan.Currency,
		},
		Capture:         true,
		Description:     plan.Title,
		PaymentMethodID: paymentMethodToken,
		Metadata: map[string]string{
			"payment_id": localPaymentID,
			"plan_code":  string(plan.Code),
		},
	}
}
