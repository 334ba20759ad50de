package renewal

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	payment "github.com/snapcal/billing/internal/app/service/payment"
	subscription "github.com/snapcal/billing/internal/app/service/subscription"
	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/metrics"
	types "github.com/snapcal/billing/pkg/types"
)

// Scheduler runs the hourly sweeps: renewals are charged shortly before
// expiry, and lapsed subscriptions fall back to the free plan.
type Scheduler struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	paySvc *payment.Service
	subSvc *subscription.Service
	cron   *cron.Cron
}

func NewScheduler(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, pay *payment.Service, sub *subscription.Service) *Scheduler {
	return &Scheduler{cfg: cfg, db: db, log: log, paySvc: pay, subSvc: sub, cron: cron.New()}
}

// DueForRenewal reports whether a subscription should be charged now: active,
// auto-renewing, with a saved method, expiring within the window but not yet
// expired.
func DueForRenewal(sub *models.Subscription, now time.Time, window time.Duration) bool {
	if sub == nil || sub.Status != types.SubscriptionStatusActive || !sub.AutoRenew {
		return false
	}
	if !sub.HasPaymentMethod() || sub.ExpireAt == nil {
		return false
	}
	return sub.ExpireAt.After(now) && sub.ExpireAt.Before(now.Add(window))
}

func (s *Scheduler) renewalWindow() time.Duration {
	hours := s.cfg.Billing.RenewalWindowHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func (s *Scheduler) renewDue(ctx context.Context) {
	now := time.Now()
	window := s.renewalWindow()

	var candidates []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_renew = ? AND payment_method_token IS NOT NULL AND expire_at > ? AND expire_at < ?",
			types.SubscriptionStatusActive, true, now, now.Add(window)).
		Find(&candidates).Error
	if err != nil {
		s.log.Errorw("renewal sweep query failed", "err", err)
		return
	}

	for _, sub := range candidates {
		if !DueForRenewal(sub, now, window) {
			continue
		}
		pending, err := s.paySvc.PendingRenewalExists(ctx, sub.UserID)
		if err != nil {
			s.log.Errorw("pending renewal check failed", "user_id", sub.UserID, "err", err)
			continue
		}
		if pending {
			continue
		}
		if _, err := s.paySvc.CreateRecurring(ctx, sub); err != nil {
			s.log.Errorw("renewal charge failed", "user_id", sub.UserID, "err", err)
			metrics.RenewalCharges.WithLabelValues("failed").Inc()
			continue
		}
		metrics.RenewalCharges.WithLabelValues("created").Inc()
	}
}

func (s *Scheduler) demoteExpired(ctx context.Context) {
	demoted, err := s.subSvc.DemoteExpired(ctx, time.Now())
	if err != nil {
		s.log.Errorw("expiry sweep failed", "err", err)
		return
	}
	if demoted > 0 {
		s.log.Infow("expired subscriptions demoted", "count", demoted)
	}
}

func registerScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := s.cron.AddFunc("@hourly", func() { s.renewDue(context.Background()) }); err != nil {
				return err
			}
			if _, err := s.cron.AddFunc("@hourly", func() { s.demoteExpired(context.Background()) }); err != nil {
				return err
			}
			s.cron.Start()
			s.log.Infow("renewal scheduler started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.cron.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			s.log.Infow("renewal scheduler stopped")
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
