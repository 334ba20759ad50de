package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/snapcal/billing/pkg/types"
)

// SubscriptionLog is the audit trail of subscription mutations: one row per
// change with before/after snapshots.
type SubscriptionLog struct {
	ID        string                               `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string                               `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Reason    types.SubscriptionChangeReason       `gorm:"column:reason;type:varchar(32);not null" json:"reason"`
	PaymentID *string                              `gorm:"column:payment_id;type:uuid;default:null" json:"payment_id"`
	Before    datatypes.JSONType[*Subscription]    `gorm:"column:before;type:jsonb" json:"before"`
	After     datatypes.JSONType[*Subscription]    `gorm:"column:after;type:jsonb" json:"after"`
	Extra     datatypes.JSONMap                    `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time                            `json:"created_at"`
}

func (SubscriptionLog) TableName() string { return "subscription_log" }
