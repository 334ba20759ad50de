package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/snapcal/billing/internal/app/api/middleware"
	subsvc "github.com/snapcal/billing/internal/app/service/subscription"
	usagesvc "github.com/snapcal/billing/internal/app/service/usage"
	cfgpkg "github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/response"
)

type consumeUsageRequest struct {
	Amount int `json:"amount"`
}

type consumeUsageResponse struct {
	Allowed bool `json:"allowed"`
	Count   int  `json:"count"`
	Limit   *int `json:"limit"`
}

// ApiConsumeUsage spends daily quota for the metered photo feature. A
// reached limit is a normal outcome (allowed=false), not an error.
func ApiConsumeUsage(sub *subsvc.Service, usage *usagesvc.Service, cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req consumeUsageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.Amount <= 0 {
			req.Amount = 1
		}

		userID := mw.UserID(c)
		row, err := sub.Ensure(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		plan := cfg.GetPlanByCode(row.PlanCode)
		if plan == nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "plan missing from catalog"))
			return
		}

		allowed, count, err := usage.CheckAndIncrement(c.Request.Context(), userID, plan.DailyPhotoLimit, req.Amount)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(consumeUsageResponse{
			Allowed: allowed,
			Count:   count,
			Limit:   plan.DailyPhotoLimit,
		}))
	}
}

func RegisterUsageRoutes(r gin.IRouter, sub *subsvc.Service, usage *usagesvc.Service, cfg *cfgpkg.Config) {
	r.POST("/usage", ApiConsumeUsage(sub, usage, cfg))
}
