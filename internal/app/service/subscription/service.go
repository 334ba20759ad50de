package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/tool"
	types "github.com/snapcal/billing/pkg/types"
)

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

// NextExpireAt computes the end date after a plan purchase or renewal:
// max(current, now) + duration. An unbounded plan clears the end date.
func NextExpireAt(current *time.Time, now time.Time, durationDays int) *time.Time {
	if durationDays == 0 {
		return nil
	}
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	next := base.AddDate(0, 0, durationDays)
	return &next
}

// Ensure returns the user's subscription row, creating a free-plan one if
// missing. Repair path for accounts predating row provisioning at signup.
func (s *Service) Ensure(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	free := s.cfg.FreePlan()
	if free == nil {
		return nil, fmt.Errorf("free plan is not configured")
	}
	sub = models.Subscription{
		ID:       tool.GenerateUUIDV7(),
		UserID:   userID,
		PlanCode: free.Code,
		Status:   types.SubscriptionStatusActive,
	}
	// A concurrent first request may win the insert.
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to backfill subscription: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to reload subscription: %w", err)
	}
	s.logChange(ctx, nil, &sub, types.SubscriptionChangeReasonBackfill, nil)
	return &sub, nil
}

// lockTx loads the user's subscription under FOR UPDATE inside tx, creating
// the free-plan row when missing.
func (s *Service) lockTx(ctx context.Context, tx *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	free := s.cfg.FreePlan()
	if free == nil {
		return nil, fmt.Errorf("free plan is not configured")
	}
	sub = models.Subscription{
		ID:       tool.GenerateUUIDV7(),
		UserID:   userID,
		PlanCode: free.Code,
		Status:   types.SubscriptionStatusActive,
	}
	if err := tx.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, nil
}

// ExtendTx activates the purchased plan and extends the subscription period
// inside the caller's transaction.
func (s *Service) ExtendTx(ctx context.Context, tx *gorm.DB, userID string, plan *types.Plan, now time.Time, reason types.SubscriptionChangeReason, paymentID *string) (*models.Subscription, error) {
	sub, err := s.lockTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	before := *sub

	sub.PlanCode = plan.Code
	sub.Status = types.SubscriptionStatusActive
	sub.ExpireAt = NextExpireAt(sub.ExpireAt, now, plan.DurationDays)
	if err := tx.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription extended",
		"user_id", userID, "plan", plan.Code, "expire_at", sub.ExpireAt, "reason", reason)
	s.logChange(ctx, &before, sub, reason, paymentID)
	return sub, nil
}

// AttachPaymentMethodTx persists the provider's saved-card token for later
// auto-renewal charges.
func (s *Service) AttachPaymentMethodTx(ctx context.Context, tx *gorm.DB, sub *models.Subscription, token, title string) error {
	sub.PaymentMethodToken = &token
	if title != "" {
		sub.PaymentMethodTitle = &title
	}
	sub.AutoRenew = true
	if err := tx.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to store payment method: %w", err)
	}
	return nil
}

// Grant applies a plan to a user without a payment. Admin gift path.
func (s *Service) Grant(ctx context.Context, userID string, plan *types.Plan, now time.Time) (*models.Subscription, error) {
	var sub *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = s.ExtendTx(ctx, tx, userID, plan, now, types.SubscriptionChangeReasonGift, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// DemoteTx moves the subscription back to the free plan inside tx.
func (s *Service) DemoteTx(ctx context.Context, tx *gorm.DB, userID string, reason types.SubscriptionChangeReason, paymentID *string) error {
	free := s.cfg.FreePlan()
	if free == nil {
		return fmt.Errorf("free plan is not configured")
	}
	sub, err := s.lockTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	before := *sub

	sub.PlanCode = free.Code
	sub.Status = types.SubscriptionStatusActive
	sub.ExpireAt = nil
	sub.AutoRenew = false
	if err := tx.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to demote subscription: %w", err)
	}
	s.logChange(ctx, &before, sub, reason, paymentID)
	return nil
}

// DemoteExpired drops every paid subscription past its end date to the free
// plan.
func (s *Service) DemoteExpired(ctx context.Context, now time.Time) (int, error) {
	free := s.cfg.FreePlan()
	if free == nil {
		return 0, fmt.Errorf("free plan is not configured")
	}
	var expired []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND expire_at IS NOT NULL AND expire_at < ? AND plan_code <> ?",
			types.SubscriptionStatusActive, now, free.Code).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	demoted := 0
	for _, sub := range expired {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.DemoteTx(ctx, tx, sub.UserID, types.SubscriptionChangeReasonExpire, nil)
		})
		if err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to demote expired subscription",
				"user_id", sub.UserID, "err", err)
			continue
		}
		demoted++
	}
	return demoted, nil
}

// Get returns the subscription row, nil when missing.
func (s *Service) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Info builds the read-only status projection; usage is filled in by the
// caller.
func (s *Service) Info(ctx context.Context, userID string) (*types.SubscriptionInfo, error) {
	sub, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := &types.SubscriptionInfo{
		PlanCode:  sub.PlanCode,
		Status:    sub.Status,
		ExpireAt:  sub.ExpireAt,
		AutoRenew: sub.AutoRenew,
	}
	if sub.PaymentMethodTitle != nil {
		info.PaymentMethodTitle = *sub.PaymentMethodTitle
	}
	if plan := s.cfg.GetPlanByCode(sub.PlanCode); plan != nil {
		info.DailyPhotoLimit = plan.DailyPhotoLimit
	}
	return info, nil
}

// logChange writes the audit row asynchronously; failures are logged, not
// returned.
func (s *Service) logChange(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason, paymentID *string) {
	go func() {
		entry := &models.SubscriptionLog{
			ID:        tool.GenerateUUIDV7(),
			UserID:    after.UserID,
			Reason:    reason,
			PaymentID: paymentID,
			Before:    datatypes.NewJSONType(before),
			After:     datatypes.NewJSONType(after),
			Extra:     datatypes.JSONMap{},
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}()
}
