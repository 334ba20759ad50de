package types

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonPurchase SubscriptionChangeReason = "purchase"
	SubscriptionChangeReasonRenewal  SubscriptionChangeReason = "renewal"
	SubscriptionChangeReasonRefund   SubscriptionChangeReason = "refund"
	SubscriptionChangeReasonExpire   SubscriptionChangeReason = "expire"
	SubscriptionChangeReasonGift     SubscriptionChangeReason = "gift"
	SubscriptionChangeReasonBackfill SubscriptionChangeReason = "backfill"
)

// SubscriptionInfo is the read-only projection returned by the status query.
type SubscriptionInfo struct {
	PlanCode           PlanCode           `json:"plan_code"`
	Status             SubscriptionStatus `json:"status"`
	ExpireAt           *time.Time         `json:"expire_at"`
	AutoRenew          bool               `json:"auto_renew"`
	PaymentMethodTitle string             `json:"payment_method,omitempty"`
	TodayUsage         int                `json:"today_usage"`
	DailyPhotoLimit    *int               `json:"daily_photo_limit"`
}
