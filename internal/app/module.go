package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/snapcal/billing/internal/app/api/server"
	"github.com/snapcal/billing/internal/app/service/payment"
	"github.com/snapcal/billing/internal/app/service/reconcile"
	"github.com/snapcal/billing/internal/app/service/renewal"
	"github.com/snapcal/billing/internal/app/service/subscription"
	"github.com/snapcal/billing/internal/app/service/usage"
	webhookgateway "github.com/snapcal/billing/internal/app/service/webhook_gateway"
	webhooklog "github.com/snapcal/billing/internal/app/service/webhook_log"
	"github.com/snapcal/billing/internal/platform/db"
	"github.com/snapcal/billing/internal/platform/provider"
	platformredis "github.com/snapcal/billing/internal/platform/redis"
	"github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	platformredis.Module,
	provider.Module,
	server.Module,
	subscription.Module,
	usage.Module,
	payment.Module,
	reconcile.Module,
	webhooklog.Module,
	webhookgateway.Module,
	renewal.Module,
)
