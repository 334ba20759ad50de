package renewal

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	models "github.com/snapcal/billing/internal/models"
	types "github.com/snapcal/billing/pkg/types"
)

func TestDueForRenewal(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	token := "pm-token-1"

	base := func() *models.Subscription {
		return &models.Subscription{
			UserID:             "user-1",
			PlanCode:           "pro_monthly",
			Status:             types.SubscriptionStatusActive,
			AutoRenew:          true,
			PaymentMethodToken: &token,
			ExpireAt:           lo.ToPtr(now.Add(6 * time.Hour)),
		}
	}

	t.Run("expiring inside window is due", func(t *testing.T) {
		assert.True(t, DueForRenewal(base(), now, window))
	})

	t.Run("nil subscription", func(t *testing.T) {
		assert.False(t, DueForRenewal(nil, now, window))
	})

	t.Run("auto-renew off", func(t *testing.T) {
		sub := base()
		sub.AutoRenew = false
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("no saved payment method", func(t *testing.T) {
		sub := base()
		sub.PaymentMethodToken = nil
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("empty payment method token", func(t *testing.T) {
		sub := base()
		sub.PaymentMethodToken = lo.ToPtr("")
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("unbounded subscription never renews", func(t *testing.T) {
		sub := base()
		sub.ExpireAt = nil
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("expiring outside window is not yet due", func(t *testing.T) {
		sub := base()
		sub.ExpireAt = lo.ToPtr(now.Add(48 * time.Hour))
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("already expired is the demotion sweep's business", func(t *testing.T) {
		sub := base()
		sub.ExpireAt = lo.ToPtr(now.Add(-time.Hour))
		assert.False(t, DueForRenewal(sub, now, window))
	})

	t.Run("inactive status", func(t *testing.T) {
		sub := base()
		sub.Status = types.SubscriptionStatusInactive
		assert.False(t, DueForRenewal(sub, now, window))
	})
}
