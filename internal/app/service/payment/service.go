package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/internal/platform/provider"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/tool"
	types "github.com/snapcal/billing/pkg/types"
)

type CreateRequest struct {
	UserID            string
	PlanCode          types.PlanCode
	ReturnURL         string
	SavePaymentMethod bool
}

type CreateResult struct {
	PaymentID       string `json:"payment_id"`
	ConfirmationURL string `json:"confirmation_url"`
}

// Service translates a plan selection into a provider checkout session. It
// never mutates the subscription: activation happens when the success webhook
// reconciles.
type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	client provider.Client
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, client provider.Client) *Service {
	return &Service{cfg: cfg, db: db, log: log, client: client}
}

// Create starts a checkout for a public plan. Price and duration come from
// the catalog only, never from the client.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	plan := s.cfg.GetPlanByCode(req.PlanCode)
	if plan == nil || plan.IsTest {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PlanCode)
	}
	return s.create(ctx, plan, req)
}

// CreateTest is the privileged operation reaching test plans.
func (s *Service) CreateTest(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	plan := s.cfg.GetPlanByCode(req.PlanCode)
	if plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PlanCode)
	}
	return s.create(ctx, plan, req)
}

func (s *Service) create(ctx context.Context, plan *types.Plan, req *CreateRequest) (*CreateResult, error) {
	returnURL := SanitizeReturnURL(req.ReturnURL, s.cfg.Billing.AllowedReturnDomains, s.cfg.Billing.DefaultReturnURL)

	// Card saving is requested only when the global recurring mode is on.
	saveMethod := s.cfg.Billing.RecurringMode && req.SavePaymentMethod
	mode := types.BillingModeOneTime
	if saveMethod {
		mode = types.BillingModeRecurring
	}

	p := &models.Payment{
		ID:       tool.GenerateUUIDV7(),
		UserID:   req.UserID,
		PlanCode: plan.Code,
		Amount:   plan.Price,
		Currency: plan.Currency,
		Status:   types.PaymentStatusPending,
		Metadata: datatypes.JSONMap{
			models.PaymentMetaBillingMode: string(mode),
			models.PaymentMetaPlanCode:    string(plan.Code),
		},
	}
	// Local intent is recorded before the remote call.
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	payload := BuildPayload(plan, returnURL, saveMethod, p.ID)
	remote, err := s.callProvider(ctx, p, payload)
	if err != nil {
		return nil, err
	}

	confirmationURL := ""
	if remote.Confirmation != nil {
		confirmationURL = remote.Confirmation.ConfirmationURL
	}
	logctx.FromCtx(ctx, s.log).Infow("payment created",
		"payment_id", p.ID, "provider_payment_id", remote.ID, "plan", plan.Code, "mode", mode)
	return &CreateResult{PaymentID: p.ID, ConfirmationURL: confirmationURL}, nil
}

// CreateRecurring charges a stored payment method for a renewal. The webhook
// completes the cycle exactly like an interactive checkout.
func (s *Service) CreateRecurring(ctx context.Context, sub *models.Subscription) (*models.Payment, error) {
	if !sub.HasPaymentMethod() {
		return nil, ErrNoPaymentMethod
	}
	plan := s.cfg.GetPlanByCode(sub.PlanCode)
	if plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, sub.PlanCode)
	}

	p := &models.Payment{
		ID:       tool.GenerateUUIDV7(),
		UserID:   sub.UserID,
		PlanCode: plan.Code,
		Amount:   plan.Price,
		Currency: plan.Currency,
		Status:   types.PaymentStatusPending,
		Metadata: datatypes.JSONMap{
			models.PaymentMetaBillingMode: string(types.BillingModeRecurring),
			models.PaymentMetaPlanCode:    string(plan.Code),
			"renewal":                     true,
		},
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create renewal payment: %w", err)
	}

	payload := BuildRecurringPayload(plan, *sub.PaymentMethodToken, p.ID)
	if _, err := s.callProvider(ctx, p, payload); err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("renewal payment created",
		"payment_id", p.ID, "user_id", sub.UserID, "plan", plan.Code)
	return p, nil
}

// callProvider makes the single remote attempt with a fresh idempotency
// token and records the remote id on the local row.
func (s *Service) callProvider(ctx context.Context, p *models.Payment, payload *provider.CreatePaymentRequest) (*provider.Payment, error) {
	remote, err := s.client.CreatePayment(ctx, payload, tool.GenerateUUIDV7())
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("provider create payment failed",
			"payment_id", p.ID, "err", err)
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(p).
		Update("provider_payment_id", remote.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store provider payment id: %w", err)
	}
	return remote, nil
}

// PendingRenewalExists reports whether a renewal charge is already in flight
// for the user.
func (s *Service) PendingRenewalExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("user_id = ? AND status = ? AND metadata ->> 'renewal' = 'true'",
			userID, types.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending renewals: %w", err)
	}
	return count > 0, nil
}
