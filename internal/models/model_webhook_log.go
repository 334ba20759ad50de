package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/snapcal/billing/pkg/types"
)

// WebhookLog is the idempotency ledger: one row per distinct provider event,
// keyed by the event's unique id. Repeat deliveries of the same event id bump
// Attempts and produce no business effects.
type WebhookLog struct {
	ID                string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventID           string                   `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex" json:"event_id"`
	EventType         string                   `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	ProviderPaymentID *string                  `gorm:"column:provider_payment_id;type:varchar(128);index" json:"provider_payment_id"`
	Status            types.WebhookDisposition `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// RawPayload is redacted before storage.
	RawPayload   datatypes.JSON `gorm:"column:raw_payload;type:jsonb" json:"raw_payload"`
	ClientIP     string         `gorm:"column:client_ip;type:varchar(64)" json:"client_ip"`
	Attempts     int            `gorm:"column:attempts;not null;default:1" json:"attempts"`
	ErrorMessage *string        `gorm:"column:error_message;type:text;default:null" json:"error_message"`
	ProcessedAt  *time.Time     `gorm:"column:processed_at;default:null" json:"processed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (WebhookLog) TableName() string { return "webhook_log" }
