package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
)

// Client is the remote checkout provider. Callers pass a fresh idempotency
// key per logical payment.
type Client interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest, idempotencyKey string) (*Payment, error)
}

type httpClient struct {
	cfg     *cfgpkg.Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Payment]
	log     *zap.SugaredLogger
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger) Client {
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[*Payment](gobreaker.Settings{
		Name:    "checkout-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only transient upstream failures count against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) != KindUnavailable
		},
	})
	return &httpClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		log:     log,
	}
}

func (c *httpClient) CreatePayment(ctx context.Context, req *CreatePaymentRequest, idempotencyKey string) (*Payment, error) {
	return c.breaker.Execute(func() (*Payment, error) {
		return c.createPayment(ctx, req, idempotencyKey)
	})
}

// createPayment makes the single remote attempt. No client-side retry.
func (c *httpClient) createPayment(ctx context.Context, req *CreatePaymentRequest, idempotencyKey string) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Provider.APIURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", idempotencyKey)
	httpReq.SetBasicAuth(c.cfg.Provider.ShopID, c.cfg.Provider.SecretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Description: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Description: err.Error(), HTTPStatus: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb providerErrorBody
		_ = json.Unmarshal(raw, &eb)
		perr := classify(resp.StatusCode, eb)
		c.log.Warnw("provider rejected payment", "http_status", resp.StatusCode, "code", perr.Code, "kind", perr.Kind)
		return nil, perr
	}

	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return &p, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
