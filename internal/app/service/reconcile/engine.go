package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	subscription "github.com/snapcal/billing/internal/app/service/subscription"
	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/metrics"
	types "github.com/snapcal/billing/pkg/types"
)

var (
	ErrPaymentNotFound = errors.New("payment not found for event")
	ErrUnknownEvent    = errors.New("unknown event type")
)

// Engine applies payment state transitions and the resulting subscription
// mutations. All mutations for one event happen in one transaction.
type Engine struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	subSvc *subscription.Service
}

func NewEngine(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, sub *subscription.Service) *Engine {
	return &Engine{cfg: cfg, db: db, log: log, subSvc: sub}
}

// Process dispatches on the event kind. The engine never retries internally;
// redelivery is the provider's job.
func (e *Engine) Process(ctx context.Context, ev *Event) error {
	metrics.ReconcileEvents.WithLabelValues(ev.Kind.String()).Inc()
	switch ev.Kind {
	case types.EventKindPaymentSucceeded:
		return e.applySucceeded(ctx, ev)
	case types.EventKindPaymentWaitingForCapture, types.EventKindPaymentCanceled:
		return e.applyStatusOnly(ctx, ev)
	case types.EventKindRefundSucceeded:
		return e.applyRefund(ctx, ev)
	case types.EventKindUnknown:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.EventType)
	}
	return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.EventType)
}

// lockPayment loads the payment addressed by the event under FOR UPDATE.
func (e *Engine) lockPayment(ctx context.Context, tx *gorm.DB, ev *Event) (*models.Payment, error) {
	var p models.Payment
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_payment_id = ?", ev.ProviderPaymentID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: provider_payment_id=%s", ErrPaymentNotFound, ev.ProviderPaymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return &p, nil
}

func (e *Engine) applySucceeded(ctx context.Context, ev *Event) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := e.lockPayment(ctx, tx, ev)
		if err != nil {
			return err
		}

		// A single logical success can arrive under differently-keyed events.
		if p.Processed() || p.Status == types.PaymentStatusSucceeded {
			logctx.FromCtx(ctx, e.log).Infow("payment already processed, skipping",
				"payment_id", p.ID, "status", p.Status)
			return nil
		}

		next, ok := NextStatus(p.Status, ev.Kind)
		if !ok {
			logctx.FromCtx(ctx, e.log).Warnw("success event ignored for current status",
				"payment_id", p.ID, "status", p.Status)
			return nil
		}

		now := time.Now()
		p.Status = next
		p.WebhookProcessedAt = &now
		if err := tx.WithContext(ctx).Save(p).Error; err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		plan := e.cfg.GetPlanByCode(p.PlanCode)
		if plan == nil {
			return fmt.Errorf("plan %q of payment %s is missing from the catalog", p.PlanCode, p.ID)
		}

		reason := types.SubscriptionChangeReasonPurchase
		if p.BillingMode() == types.BillingModeRecurring && p.Metadata["renewal"] == true {
			reason = types.SubscriptionChangeReasonRenewal
		}
		sub, err := e.subSvc.ExtendTx(ctx, tx, p.UserID, plan, now, reason, lo.ToPtr(p.ID))
		if err != nil {
			return err
		}

		if ev.PaymentMethod != nil && ev.PaymentMethod.Saved && p.BillingMode() == types.BillingModeRecurring {
			if err := e.subSvc.AttachPaymentMethodTx(ctx, tx, sub, ev.PaymentMethod.ID, ev.PaymentMethod.Title); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyStatusOnly covers transitions that never touch the subscription
// (waiting_for_capture, canceled).
func (e *Engine) applyStatusOnly(ctx context.Context, ev *Event) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := e.lockPayment(ctx, tx, ev)
		if err != nil {
			return err
		}
		next, ok := NextStatus(p.Status, ev.Kind)
		if !ok {
			return nil
		}
		p.Status = next
		if next.Terminal() {
			p.WebhookProcessedAt = lo.ToPtr(time.Now())
		}
		if err := tx.WithContext(ctx).Save(p).Error; err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return nil
	})
}

func (e *Engine) applyRefund(ctx context.Context, ev *Event) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := e.lockPayment(ctx, tx, ev)
		if err != nil {
			return err
		}
		next, ok := NextStatus(p.Status, ev.Kind)
		if !ok {
			logctx.FromCtx(ctx, e.log).Warnw("refund ignored for current status",
				"payment_id", p.ID, "status", p.Status)
			return nil
		}
		p.Status = next
		if err := tx.WithContext(ctx).Save(p).Error; err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return e.subSvc.DemoteTx(ctx, tx, p.UserID, types.SubscriptionChangeReasonRefund, lo.ToPtr(p.ID))
	})
}
