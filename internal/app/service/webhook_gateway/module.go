package webhook_gateway

import "go.uber.org/fx"

// Module exposes the webhook gateway via Fx.
var Module = fx.Options(
	fx.Provide(NewGateway),
)
