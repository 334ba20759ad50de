package payment

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcal/billing/pkg/types"
)

func TestSanitizeReturnURL(t *testing.T) {
	allowed := []string{"snapcal.app", "example.com"}
	fallback := "https://snapcal.app/payment/done"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty falls back", raw: "", want: fallback},
		{name: "allowed host kept", raw: "https://snapcal.app/after", want: "https://snapcal.app/after"},
		{name: "allowed subdomain kept", raw: "https://pay.snapcal.app/after", want: "https://pay.snapcal.app/after"},
		{name: "second allowed domain kept", raw: "http://example.com/x", want: "http://example.com/x"},
		{name: "foreign host replaced", raw: "https://evil.example.net/phish", want: fallback},
		{name: "suffix trick replaced", raw: "https://notsnapcal.app/x", want: fallback},
		{name: "embedded allowed host replaced", raw: "https://snapcal.app.evil.net/x", want: fallback},
		{name: "javascript scheme replaced", raw: "javascript:alert(1)", want: fallback},
		{name: "scheme-relative replaced", raw: "//evil.net/x", want: fallback},
		{name: "unparseable replaced", raw: "http://[::1", want: fallback},
		{name: "host case insensitive", raw: "https://SnapCal.App/after", want: "https://SnapCal.App/after"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeReturnURL(tc.raw, allowed, fallback))
		})
	}
}

func TestSanitizeReturnURL_EmptyAllowlistAlwaysFallsBack(t *testing.T) {
	fallback := "https://snapcal.app/payment/done"
	assert.Equal(t, fallback, SanitizeReturnURL("https://anywhere.net/x", nil, fallback))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{49900, "499.00"},
		{49950, "499.50"},
		{1, "0.01"},
		{100, "1.00"},
		{0, "0.00"},
		{99, "0.99"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatAmount(tc.minor))
	}
}

func TestBuildPayload(t *testing.T) {
	plan := &types.Plan{
		Code:         "pro_monthly",
		Title:        "Pro Monthly",
		Currency:     "RUB",
		Price:        49900,
		DurationDays: 30,
	}

	t.Run("one-time checkout omits save flag", func(t *testing.T) {
		req := BuildPayload(plan, "https://snapcal.app/done", false, "pay-123")
		require.NotNil(t, req)
		assert.Equal(t, "499.00", req.Amount.Value)
		assert.Equal(t, "RUB", req.Amount.Currency)
		assert.True(t, req.Capture)
		assert.Equal(t, "Pro Monthly", req.Description)
		require.NotNil(t, req.Confirmation)
		assert.Equal(t, "redirect", req.Confirmation.Type)
		assert.Equal(t, "https://snapcal.app/done", req.Confirmation.ReturnURL)
		assert.Nil(t, req.SavePaymentMethod, "save flag must be absent, not false")
		assert.Empty(t, req.PaymentMethodID)
		assert.Equal(t, "pay-123", req.Metadata["payment_id"])
		assert.Equal(t, "pro_monthly", req.Metadata["plan_code"])
	})

	t.Run("recurring checkout requests card saving", func(t *testing.T) {
		req := BuildPayload(plan, "https://snapcal.app/done", true, "pay-123")
		require.NotNil(t, req.SavePaymentMethod)
		assert.True(t, *req.SavePaymentMethod)
	})
}

func TestBuildRecurringPayload(t *testing.T) {
	plan := &types.Plan{
		Code:     "pro_monthly",
		Title:    "Pro Monthly",
		Currency: "RUB",
		Price:    49900,
	}
	req := BuildRecurringPayload(plan, "pm-token-1", "pay-456")
	require.NotNil(t, req)
	assert.Equal(t, "499.00", req.Amount.Value)
	assert.True(t, req.Capture)
	assert.Equal(t, "pm-token-1", req.PaymentMethodID)
	assert.Nil(t, req.Confirmation, "unattended charge has no confirmation step")
	assert.Nil(t, req.SavePaymentMethod)
	assert.Equal(t, "pay-456", req.Metadata["payment_id"])
}

func TestBuildPayload_SaveFlagPointerIndependence(t *testing.T) {
	plan := &types.Plan{Code: "p", Currency: "RUB", Price: 100}
	a := BuildPayload(plan, "u", true, "1")
	b := BuildPayload(plan, "u", true, "2")
	require.NotNil(t, a.SavePaymentMethod)
	require.NotNil(t, b.SavePaymentMethod)
	*a.SavePaymentMethod = false
	assert.Equal(t, lo.ToPtr(true), b.SavePaymentMethod)
}
