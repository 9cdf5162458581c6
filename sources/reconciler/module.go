package reconciler

import (
	"context"
	"musegate/sources/billing"
	"musegate/sources/configuration"
	"musegate/sources/metrics"
	"musegate/sources/repository"
	"musegate/sources/tracing"

	"go.uber.org/fx"
)

var Module = fx.Module("reconciler",
	fx.Provide(
		newReconciler,
		NewCompletionQueue,
		newSweeper,
	),
	fx.Invoke(registerLifecycle),
)

func newReconciler(
	generations *repository.GenerationsRepository,
	requests *repository.RequestsRepository,
	users *repository.UsersRepository,
	transactions *repository.TransactionsRepository,
	ledger *billing.Ledger,
	notifier Notifier,
	metricsService *metrics.MetricsService,
) *Reconciler {
	return NewReconciler(generations, requests, users, transactions, ledger, notifier, metricsService)
}

func newSweeper(log *tracing.Logger, config *configuration.Config, reconciler *Reconciler, requests *repository.RequestsRepository) *Sweeper {
	return NewSweeper(log, config, reconciler, requests)
}

func registerLifecycle(lifecycle fx.Lifecycle, queue *CompletionQueue, reconciler *Reconciler, sweeper *Sweeper) {
	queue.Bind(reconciler.Reconcile)

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			queue.Start()
			sweeper.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			sweeper.Stop()
			queue.Stop()
			return nil
		},
	})
}
