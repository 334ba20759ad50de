package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/snapcal/billing/internal/app/api/middleware"
	payment "github.com/snapcal/billing/internal/app/service/payment"
	"github.com/snapcal/billing/internal/platform/provider"
	"github.com/snapcal/billing/pkg/response"
	"github.com/snapcal/billing/pkg/types"
)

// PaymentCreator is the slice of the payment service the handlers need.
type PaymentCreator interface {
	Create(ctx context.Context, req *payment.CreateRequest) (*payment.CreateResult, error)
	CreateTest(ctx context.Context, req *payment.CreateRequest) (*payment.CreateResult, error)
}

type createPaymentRequest struct {
	PlanCode          string `json:"plan_code" binding:"required"`
	ReturnURL         string `json:"return_url"`
	SavePaymentMethod bool   `json:"save_payment_method"`
}

// ApiCreatePayment starts a checkout session and returns the redirect URL.
// The subscription is untouched until the success webhook reconciles.
func ApiCreatePayment(svc PaymentCreator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := svc.Create(c.Request.Context(), &payment.CreateRequest{
			UserID:            mw.UserID(c),
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

// writePaymentError maps payment failures to HTTP statuses by error kind,
// never by message content.
func writePaymentError(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrPlanNotFound) {
		c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		return
	}
	switch provider.KindOf(err) {
	case provider.KindFeatureDisabled:
		c.JSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, "card saving is not enabled for this account"))
	case provider.KindUnavailable:
		c.JSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeUpstreamUnavailable, nil))
	case provider.KindUnauthorized, provider.KindInvalidRequest:
		c.JSON(http.StatusBadGateway, response.ErrorT[any](response.APIResponseCodeUpstreamError, nil))
	default:
		c.JSON(http.StatusBadGateway, response.ErrorT[any](response.APIResponseCodeUpstreamError, nil))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc PaymentCreator) {
	r.POST("/payment", ApiCreatePayment(svc))
}
