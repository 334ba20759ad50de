package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
)

func testClient(t *testing.T, upstream *httptest.Server) Client {
	t.Helper()
	cfg := &cfgpkg.Config{}
	cfg.Provider.APIURL = upstream.URL
	cfg.Provider.ShopID = "shop-1"
	cfg.Provider.SecretKey = "secret-1"
	cfg.Provider.TimeoutSeconds = 2
	return NewClient(cfg, zap.NewNop().Sugar())
}

func TestCreatePayment_Success(t *testing.T) {
	var gotReq CreatePaymentRequest
	var gotIdemKey, gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		gotIdemKey = r.Header.Get("Idempotence-Key")
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Payment{
			ID:     "prov-pay-1",
			Status: "pending",
			Amount: Amount{Value: "499.00", Currency: "RUB"},
			Confirmation: &Confirmation{
				Type:            "redirect",
				ConfirmationURL: "https://checkout.example.com/confirm/abc",
			},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	req := &CreatePaymentRequest{
		Amount:      Amount{Value: "499.00", Currency: "RUB"},
		Capture:     true,
		Description: "Pro Monthly",
	}
	p, err := c.CreatePayment(context.Background(), req, "idem-key-1")
	require.NoError(t, err)

	assert.Equal(t, "prov-pay-1", p.ID)
	assert.Equal(t, "https://checkout.example.com/confirm/abc", p.Confirmation.ConfirmationURL)
	assert.Equal(t, "idem-key-1", gotIdemKey)
	assert.Equal(t, "shop-1", gotUser)
	assert.Equal(t, "secret-1", gotPass)
	assert.Equal(t, "499.00", gotReq.Amount.Value)
}

func TestCreatePayment_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{name: "card saving not provisioned", status: 400, body: `{"type":"error","code":"feature_not_allowed","description":"saving payment methods is not allowed"}`, wantKind: KindFeatureDisabled},
		{name: "forbidden", status: 403, body: `{}`, wantKind: KindFeatureDisabled},
		{name: "bad credentials code", status: 400, body: `{"code":"invalid_credentials"}`, wantKind: KindUnauthorized},
		{name: "unauthorized status", status: 401, body: `{}`, wantKind: KindUnauthorized},
		{name: "payload rejected", status: 400, body: `{"code":"invalid_request"}`, wantKind: KindInvalidRequest},
		{name: "server error", status: 500, body: `{}`, wantKind: KindUnavailable},
		{name: "throttled", status: 429, body: `{}`, wantKind: KindUnavailable},
		{name: "unstructured error body", status: 400, body: `oops`, wantKind: KindInvalidRequest},
		{name: "unexpected status", status: 418, body: `{}`, wantKind: KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := testClient(t, srv)
			p, err := c.CreatePayment(context.Background(), &CreatePaymentRequest{}, "idem-key-1")
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Equal(t, tc.wantKind, KindOf(err))
		})
	}
}

func TestCreatePayment_ConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connections now refused

	c := testClient(t, srv)
	_, err := c.CreatePayment(context.Background(), &CreatePaymentRequest{}, "idem-key-1")
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestCreatePayment_BreakerIgnoresBusinessRejections(t *testing.T) {
	// A run of 4xx responses must not open the circuit: rejections of our own
	// payload are not a provider outage.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_request"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	for i := 0; i < 10; i++ {
		_, err := c.CreatePayment(context.Background(), &CreatePaymentRequest{}, "idem-key-1")
		require.Error(t, err)
		assert.Equal(t, KindInvalidRequest, KindOf(err), "call %d should still reach the provider", i+1)
	}
}

func TestKindOf_NonProviderErrorIsUnavailable(t *testing.T) {
	assert.Equal(t, KindUnavailable, KindOf(context.DeadlineExceeded))
}
