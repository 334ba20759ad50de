package webhook_log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/tool"
	types "github.com/snapcal/billing/pkg/types"
)

// Service is the idempotency ledger over webhook_log rows.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Claim atomically gets-or-creates the ledger row for entry.EventID under a
// row lock. The second return value is true when this delivery is the first
// for the event id; a repeat delivery bumps Attempts and claims nothing.
func (s *Service) Claim(ctx context.Context, entry *models.WebhookLog) (*models.WebhookLog, bool, error) {
	var row models.WebhookLog
	var claimed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ?", entry.EventID).First(&row).Error
		if err == nil {
			claimed = false
			row.Attempts++
			return tx.Model(&row).UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up webhook log: %w", err)
		}

		entry.ID = tool.GenerateUUIDV7()
		entry.Status = types.WebhookDispositionReceived
		entry.Attempts = 1
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return fmt.Errorf("failed to create webhook log: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the insert race against a concurrent delivery.
			claimed = false
			if err := tx.Where("event_id = ?", entry.EventID).First(&row).Error; err != nil {
				return fmt.Errorf("failed to reload webhook log after conflict: %w", err)
			}
			row.Attempts++
			return tx.Model(&row).UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
		}
		claimed = true
		row = *entry
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &row, claimed, nil
}

func (s *Service) MarkProcessing(ctx context.Context, id string) {
	s.mark(ctx, id, map[string]any{"status": types.WebhookDispositionProcessing})
}

func (s *Service) MarkSuccess(ctx context.Context, id string) {
	s.mark(ctx, id, map[string]any{
		"status":       types.WebhookDispositionSuccess,
		"processed_at": lo.ToPtr(time.Now()),
	})
}

func (s *Service) MarkFailed(ctx context.Context, id string, cause error) {
	s.mark(ctx, id, map[string]any{
		"status":        types.WebhookDispositionFailed,
		"error_message": lo.ToPtr(cause.Error()),
	})
}

func (s *Service) mark(ctx context.Context, id string, updates map[string]any) {
	if err := s.db.WithContext(ctx).Model(&models.WebhookLog{}).
		Where("id = ?", id).Updates(updates).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to update webhook log %s: %v", id, err)
	}
}

// Scan lists ledger rows for the admin surface.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.WebhookLog `json:"items"`
	Total int64                `json:"total"`
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.WebhookLog{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook logs: %w", err)
	}

	var rows []*models.WebhookLog
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}
