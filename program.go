package main

import (
	"context"
	"time"
	"musegate/sources/billing"
	"musegate/sources/configuration"
	"musegate/sources/external"
	"musegate/sources/features"
	"musegate/sources/ingress"
	"musegate/sources/metrics"
	"musegate/sources/network"
	"musegate/sources/persistence"
	"musegate/sources/platform"
	"musegate/sources/providers"
	"musegate/sources/reconciler"
	"musegate/sources/repository"
	"musegate/sources/telegram"
	"musegate/sources/throttler"
	"musegate/sources/tracing"

	"go.uber.org/fx"
)

var (
	version   = "0.0.0"
	buildTime = "1970-01-01"
)

func main() {
	platform.SetAppManifest(version, buildTime, time.Now())

	fx.New(
		tracing.Module,
		configuration.Module,
		external.Module,
		network.Module,
		persistence.Module,
		repository.Module,
		metrics.Module,
		billing.Module,
		throttler.Module,
		features.Module,
		providers.Module,
		reconciler.Module,
		ingress.Module,
		telegram.Module,

		fx.Invoke(func(lc fx.Lifecycle, log *tracing.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.I("Musegate started successfully", "version", version, "build_time", buildTime)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.I("Musegate stopped", "version", version, "build_time", buildTime)
					return nil
				},
			})
		}),
	).Run()
}
