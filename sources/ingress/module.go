package ingress

import (
	"context"
	"errors"
	"net/http"
	"musegate/sources/tracing"

	"go.uber.org/fx"
)

var Module = fx.Module("ingress",
	fx.Provide(
		NewWebhookServer,
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lifecycle fx.Lifecycle, log *tracing.Logger, server *WebhookServer) {
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.E("Webhook ingress failed", tracing.InnerError, err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
