package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/snapcal/billing/internal/app/api/middleware"
	reconcile "github.com/snapcal/billing/internal/app/service/reconcile"
	gw "github.com/snapcal/billing/internal/app/service/webhook_gateway"
	"github.com/snapcal/billing/pkg/logctx"
)

// WebhookHandler is the slice of the gateway the route needs.
type WebhookHandler interface {
	Handle(ctx context.Context, clientIP string, body []byte) (*gw.Result, error)
}

// ApiProviderWebhook receives provider notifications. Business failures
// answer 200; 500 is reserved for events that were not durably recorded.
func ApiProviderWebhook(h WebhookHandler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "bad_request"})
			return
		}

		res, err := h.Handle(c.Request.Context(), mw.WebhookClientIP(c), body)
		if err != nil {
			if errors.Is(err, reconcile.ErrMalformedEvent) {
				c.JSON(http.StatusBadRequest, gin.H{"status": "bad_request"})
				return
			}
			// Not recorded; a non-200 makes the provider redeliver.
			logctx.FromCtx(c.Request.Context(), log).Errorw("webhook not recorded", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "result": string(res.Disposition)})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h WebhookHandler, log *zap.SugaredLogger) {
	r.POST("/provider", ApiProviderWebhook(h, log))
}
