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

// ApiSubscriptionStatus is the read-only projection of Subscription +
// DailyUsage for the calling user.
func ApiSubscriptionStatus(sub *subsvc.Service, usage *usagesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := mw.UserID(c)
		info, err := sub.Info(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		count, err := usage.TodayCount(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		info.TodayUsage = count
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// ApiListPlans returns the public plan catalog (test plans excluded).
func ApiListPlans(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(cfg.PublicPlans()))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, sub *subsvc.Service, usage *usagesvc.Service, cfg *cfgpkg.Config) {
	r.GET("/subscription", ApiSubscriptionStatus(sub, usage))
	r.GET("/plans", ApiListPlans(cfg))
}
