package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	payment "github.com/snapcal/billing/internal/app/service/payment"
	"github.com/snapcal/billing/internal/platform/provider"
)

type stubPaymentCreator struct {
	res *payment.CreateResult
	err error

	gotReq *payment.CreateRequest
}

func (s *stubPaymentCreator) Create(_ context.Context, req *payment.CreateRequest) (*payment.CreateResult, error) {
	s.gotReq = req
	return s.res, s.err
}

func (s *stubPaymentCreator) CreateTest(_ context.Context, req *payment.CreateRequest) (*payment.CreateResult, error) {
	s.gotReq = req
	return s.res, s.err
}

func paymentRouter(stub *stubPaymentCreator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	g.Use(func(c *gin.Context) { c.Set("userID", "user-1") })
	RegisterPaymentRoutes(g, stub)
	return r
}

func postPayment(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiCreatePayment_ReturnsConfirmationURL(t *testing.T) {
	stub := &stubPaymentCreator{res: &payment.CreateResult{
		PaymentID:       "pay-1",
		ConfirmationURL: "https://checkout.example.com/confirm/abc",
	}}
	r := paymentRouter(stub)

	w := postPayment(r, `{"plan_code":"pro_monthly","return_url":"https://snapcal.app/done"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://checkout.example.com/confirm/abc")
	require.NotNil(t, stub.gotReq)
	require.Equal(t, "user-1", stub.gotReq.UserID)
	require.Equal(t, "pro_monthly", string(stub.gotReq.PlanCode))
}

func TestApiCreatePayment_MissingPlanCodeIs400(t *testing.T) {
	stub := &stubPaymentCreator{}
	r := paymentRouter(stub)

	w := postPayment(r, `{"return_url":"https://snapcal.app/done"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, stub.gotReq, "service must not be called for an invalid body")
}

func TestApiCreatePayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "unknown plan", err: payment.ErrPlanNotFound, wantStatus: http.StatusBadRequest},
		{name: "card saving not provisioned", err: &provider.Error{Kind: provider.KindFeatureDisabled}, wantStatus: http.StatusForbidden},
		{name: "provider down", err: &provider.Error{Kind: provider.KindUnavailable}, wantStatus: http.StatusServiceUnavailable},
		{name: "bad credentials", err: &provider.Error{Kind: provider.KindUnauthorized}, wantStatus: http.StatusBadGateway},
		{name: "payload rejected", err: &provider.Error{Kind: provider.KindInvalidRequest}, wantStatus: http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := paymentRouter(&stubPaymentCreator{err: tc.err})
			w := postPayment(r, `{"plan_code":"pro_monthly"}`)
			require.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRegisterPaymentRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterPaymentRoutes(g, nil)

	found := false
	for _, rt := range r.Routes() {
		if rt.Method == http.MethodPost && rt.Path == "/api/v1/payment" {
			found = true
		}
	}
	require.True(t, found)
}
