package billing

import (
	"context"
	"musegate/sources/repository"
	"musegate/sources/tracing"

	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		func(users *repository.UsersRepository) *Ledger { return NewLedger(users) },
		NewCostEstimator,
		NewQuotaResetter,
	),

	fx.Invoke(func(lc fx.Lifecycle, resetter *QuotaResetter, log *tracing.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go resetter.Start()
				log.I("Quota resetter started")
				return nil
			},
			OnStop: func(ctx context.Context) error {
				resetter.Stop()
				log.I("Quota resetter stopped")
				return nil
			},
		})
	}),
)
