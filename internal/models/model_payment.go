package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/snapcal/billing/pkg/types"
)

// Metadata keys stamped into Payment.Metadata at creation time.
const (
	PaymentMetaBillingMode = "billing_mode"
	PaymentMetaPlanCode    = "plan_code"
)

// Payment is one checkout attempt. It is created PENDING before the remote
// session exists; every later status change is driven by the reconciliation
// engine reacting to webhook events.
type Payment struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	// ProviderPaymentID is the remote key, set once the checkout session is
	// created. Unique so a webhook event resolves to exactly one row.
	ProviderPaymentID *string        `gorm:"column:provider_payment_id;type:varchar(128);uniqueIndex" json:"provider_payment_id"`
	PlanCode          types.PlanCode `gorm:"column:plan_code;type:varchar(64);not null" json:"plan_code"`
	// Amount in minor currency units, copied from the plan catalog.
	Amount   int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status   types.PaymentStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// WebhookProcessedAt is the idempotency guard: set in the same
	// transaction that applies the success transition, never cleared.
	WebhookProcessedAt *time.Time        `gorm:"column:webhook_processed_at;default:null" json:"webhook_processed_at"`
	Metadata           datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) BillingMode() types.BillingMode {
	if p == nil || p.Metadata == nil {
		return types.BillingModeOneTime
	}
	if v, ok := p.Metadata[PaymentMetaBillingMode].(string); ok {
		return types.BillingMode(v)
	}
	return types.BillingModeOneTime
}

func (p *Payment) Processed() bool {
	return p != nil && p.WebhookProcessedAt != nil
}
