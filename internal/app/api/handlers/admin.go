package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	payment "github.com/snapcal/billing/internal/app/service/payment"
	subsvc "github.com/snapcal/billing/internal/app/service/subscription"
	webhooklog "github.com/snapcal/billing/internal/app/service/webhook_log"
	cfgpkg "github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/response"
	"github.com/snapcal/billing/pkg/types"
)

type adminCreatePaymentRequest struct {
	UserID            string `json:"user_id" binding:"required"`
	PlanCode          string `json:"plan_code" binding:"required"`
	ReturnURL         string `json:"return_url"`
	SavePaymentMethod bool   `json:"save_payment_method"`
}

// ApiAdminCreatePayment starts a checkout for any plan, test plans included.
func ApiAdminCreatePayment(svc PaymentCreator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminCreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.CreateTest(c.Request.Context(), &payment.CreateRequest{
			UserID:            req.UserID,
			PlanCode:          types.PlanCode(req.PlanCode),
			ReturnURL:         req.ReturnURL,
			SavePaymentMethod: req.SavePaymentMethod,
		})
		if err != nil {
			writePaymentError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type adminGiftRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	PlanCode string `json:"plan_code" binding:"required"`
}

// ApiAdminGiftPlan grants a plan to a user without a payment. Stacking rules
// are the same as a purchase: remaining paid time is preserved.
func ApiAdminGiftPlan(cfg *cfgpkg.Config, sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminGiftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		plan := cfg.GetPlanByCode(types.PlanCode(req.PlanCode))
		if plan == nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "plan not found"))
			return
		}
		row, err := sub.Grant(c.Request.Context(), req.UserID, plan, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(row))
	}
}

// ApiAdminListWebhookLogs pages through the idempotency ledger for support
// investigations.
func ApiAdminListWebhookLogs(ledger *webhooklog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req webhooklog.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := ledger.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, cfg *cfgpkg.Config, svc PaymentCreator, sub *subsvc.Service, ledger *webhooklog.Service) {
	r.POST("/payment", ApiAdminCreatePayment(svc))
	r.POST("/gift", ApiAdminGiftPlan(cfg, sub))
	r.POST("/webhook_logs/scan", ApiAdminListWebhookLogs(ledger))
}
