package models

import (
	"time"

	"github.com/snapcal/billing/pkg/types"
)

// Subscription stores the user's current plan assignment. One row per user;
// mutated only by the reconciliation engine (on payment success / refund) and
// by the renewal scheduler (expiry demotion).
type Subscription struct {
	ID       string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID   string                   `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	PlanCode types.PlanCode           `gorm:"column:plan_code;type:varchar(64);not null" json:"plan_code"`
	Status   types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// ExpireAt is nil for unbounded plans (duration 0).
	ExpireAt  *time.Time `gorm:"column:expire_at;default:null" json:"expire_at"`
	AutoRenew bool       `gorm:"column:auto_renew;not null;default:false" json:"auto_renew"`
	// PaymentMethodToken is the provider's opaque reference to a saved card,
	// persisted when a recurring-mode payment succeeds with a saved method.
	PaymentMethodToken *string `gorm:"column:payment_method_token;type:varchar(128);default:null" json:"-"`
	// PaymentMethodTitle is the masked descriptor safe to show users
	// (for example "Visa •••• 4242").
	PaymentMethodTitle *string   `gorm:"column:payment_method_title;type:varchar(64);default:null" json:"payment_method_title"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }

// Valid reports whether the subscription grants access at time now.
func (s *Subscription) Valid(now time.Time) bool {
	if s == nil || s.Status != types.SubscriptionStatusActive {
		return false
	}
	return s.ExpireAt == nil || s.ExpireAt.After(now)
}

func (s *Subscription) HasPaymentMethod() bool {
	return s != nil && s.PaymentMethodToken != nil && *s.PaymentMethodToken != ""
}
