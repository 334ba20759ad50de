package webhook_gateway

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	reconcile "github.com/snapcal/billing/internal/app/service/reconcile"
	webhooklog "github.com/snapcal/billing/internal/app/service/webhook_log"
	models "github.com/snapcal/billing/internal/models"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/logctx"
	"github.com/snapcal/billing/pkg/metrics"
	types "github.com/snapcal/billing/pkg/types"
)

// Processor consumes validated events. Satisfied by *reconcile.Engine.
type Processor interface {
	Process(ctx context.Context, ev *reconcile.Event) error
}

// Ledger is the idempotency ledger. Satisfied by *webhooklog.Service.
type Ledger interface {
	Claim(ctx context.Context, entry *models.WebhookLog) (*models.WebhookLog, bool, error)
	MarkProcessing(ctx context.Context, id string)
	MarkSuccess(ctx context.Context, id string)
	MarkFailed(ctx context.Context, id string, cause error)
}

// Gateway sits between the public webhook endpoint and the reconciliation
// logic: it parses, redacts, claims the ledger row and dispatches.
type Gateway struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	ledger Ledger
	engine Processor
}

func NewGateway(cfg *config.Config, log *zap.SugaredLogger, ledger *webhooklog.Service, engine *reconcile.Engine) *Gateway {
	return &Gateway{cfg: cfg, log: log, ledger: ledger, engine: engine}
}

// NewGatewayWith injects stub ledger and processor implementations.
func NewGatewayWith(cfg *config.Config, log *zap.SugaredLogger, ledger Ledger, engine Processor) *Gateway {
	return &Gateway{cfg: cfg, log: log, ledger: ledger, engine: engine}
}

type Result struct {
	Disposition types.WebhookDisposition
	EventID     string
}

// Handle processes one inbound notification. An error return means the event
// was not durably recorded (malformed body, ledger storage failure); only then
// may the HTTP layer answer non-200 and invite a redelivery. Failures during
// dispatch are recorded on the ledger row and reported as delivered.
func (g *Gateway) Handle(ctx context.Context, clientIP string, body []byte) (*Result, error) {
	ev, err := reconcile.DecodeEvent(body)
	if err != nil {
		return nil, err
	}

	entry := &models.WebhookLog{
		EventID:           ev.EventID,
		EventType:         ev.EventType,
		ProviderPaymentID: lo.ToPtr(ev.ProviderPaymentID),
		RawPayload:        webhooklog.Redact(body),
		ClientIP:          clientIP,
	}
	row, claimed, err := g.ledger.Claim(ctx, entry)
	if err != nil {
		return nil, err
	}

	lg := logctx.FromCtx(ctx, g.log).With("event_id", ev.EventID, "event_type", ev.EventType)
	if !claimed {
		lg.Infow("webhook_duplicate", "attempts", row.Attempts)
		metrics.WebhookDispositions.WithLabelValues(string(types.WebhookDispositionDuplicate)).Inc()
		return &Result{Disposition: types.WebhookDispositionDuplicate, EventID: ev.EventID}, nil
	}

	g.ledger.MarkProcessing(ctx, row.ID)
	if err := g.engine.Process(ctx, ev); err != nil {
		lg.Errorw("webhook_dispatch_failed", "err", err)
		g.ledger.MarkFailed(ctx, row.ID, err)
		metrics.WebhookDispositions.WithLabelValues(string(types.WebhookDispositionFailed)).Inc()
		return &Result{Disposition: types.WebhookDispositionFailed, EventID: ev.EventID}, nil
	}

	g.ledger.MarkSuccess(ctx, row.ID)
	lg.Infow("webhook_processed")
	metrics.WebhookDispositions.WithLabelValues(string(types.WebhookDispositionSuccess)).Inc()
	return &Result{Disposition: types.WebhookDispositionSuccess, EventID: ev.EventID}, nil
}
