package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/metrics"
	"github.com/snapcal/billing/pkg/tool"
)

// Service is the per-user per-day usage counter.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// decide is the limit check applied to the locked row. A nil limit always
// allows.
func decide(current, amount int, limit *int) (bool, int) {
	if limit == nil {
		return true, current + amount
	}
	if current+amount > *limit {
		return false, current
	}
	return true, current + amount
}

// CheckAndIncrement consumes amount units of today's quota and returns
// whether the consumption was allowed plus the stored count. A refused
// increment leaves the counter untouched.
func (s *Service) CheckAndIncrement(ctx context.Context, userID string, limit *int, amount int) (bool, int, error) {
	if amount <= 0 {
		return false, 0, fmt.Errorf("invalid increment amount: %d", amount)
	}
	day := models.UsageDay(time.Now())

	// Unlimited plans skip the row lock; the counter still advances via a
	// single atomic upsert.
	if limit == nil {
		newCount, err := s.upsertAdd(ctx, userID, day, amount)
		if err != nil {
			return false, 0, err
		}
		return true, newCount, nil
	}

	var allowed bool
	var newCount int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.lockToday(ctx, tx, userID, day)
		if err != nil {
			return err
		}
		allowed, newCount = decide(row.Count, amount, limit)
		if !allowed {
			return nil
		}
		return tx.WithContext(ctx).Model(row).Update("count", newCount).Error
	})
	if err != nil {
		return false, 0, err
	}
	if !allowed {
		metrics.UsageDenied.Inc()
		logctx.FromCtx(ctx, s.log).Infow("usage limit reached",
			"user_id", userID, "count", newCount, "limit", *limit)
	}
	return allowed, newCount, nil
}

// lockToday gets-or-creates today's row under FOR UPDATE.
func (s *Service) lockToday(ctx context.Context, tx *gorm.DB, userID, day string) (*models.DailyUsage, error) {
	var row models.DailyUsage
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ?", userID, day).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock daily usage: %w", err)
	}
	// A concurrent request may win the insert; relock whichever row exists.
	fresh := models.DailyUsage{ID: tool.GenerateUUIDV7(), UserID: userID, Day: day}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("failed to create daily usage: %w", err)
	}
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ?", userID, day).First(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to relock daily usage: %w", err)
	}
	return &row, nil
}

// upsertSQL builds the atomic increment statement. The table name comes from
// the model so it is declared in one place only.
func upsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, day, count, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())
		ON CONFLICT (user_id, day)
		DO UPDATE SET count = %[1]s.count + EXCLUDED.count, updated_at = NOW()
		RETURNING count`, models.DailyUsage{}.TableName())
}

// upsertAdd advances the counter in one atomic statement.
func (s *Service) upsertAdd(ctx context.Context, userID, day string, amount int) (int, error) {
	var newCount int
	err := s.db.WithContext(ctx).Raw(upsertSQL(),
		tool.GenerateUUIDV7(), userID, day, amount,
	).Scan(&newCount).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return newCount, nil
}

// TodayCount reads today's counter for the status projection.
func (s *Service) TodayCount(ctx context.Context, userID string) (int, error) {
	var row models.DailyUsage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, models.UsageDay(time.Now())).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}
