package providers

import "go.uber.org/fx"

var Module = fx.Module("providers",
	fx.Provide(
		NewOpenRouterClient,
		NewOpenAIClient,
		NewOpenRouterAdapter,
		NewDallEAdapter,
		NewMidjourneyAdapter,
		NewSunoAdapter,
		NewKlingAdapter,
		NewImageBalancer,
		NewRegistry,
	),
)
