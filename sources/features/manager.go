package features

import (
	"context"
	"time"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"github.com/Unleash/unleash-client-go/v4"
)

const (
	FeatureSuggestions     = "musegate/suggestions"
	FeatureAdvancedText    = "musegate/text/advanced"
	FeatureProviderPrefix  = "musegate/providers/"
	defaultRefreshInterval = 5 * time.Second
)

type FeatureManager struct {
	client *unleash.Client
	log    *tracing.Logger
}

func NewFeatureManager(config *configuration.Config, log *tracing.Logger) (*FeatureManager, error) {
	refresh := config.Features.RefreshInterval
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	appName := config.Features.AppName
	if appName == "" {
		appName = "musegate"
	}

	client, err := unleash.NewClient(
		unleash.WithUrl(config.Features.APIURL),
		unleash.WithAppName(appName),
		unleash.WithInstanceId(config.Features.InstanceID),
		unleash.WithRefreshInterval(refresh),
		unleash.WithListener(&unleashListener{log: log}),
	)

	if err != nil {
		log.E("Failed to initialize Unleash client", tracing.InnerError, err)
		return nil, err
	}

	log.I("Unleash client initialized",
		"api_url", config.Features.APIURL,
		"app_name", appName,
		"instance_id", config.Features.InstanceID,
		"refresh_interval", refresh,
	)

	return &FeatureManager{client: client, log: log}, nil
}

func (f *FeatureManager) IsEnabled(featureName string) bool {
	return f.client.IsEnabled(featureName)
}

func (f *FeatureManager) IsEnabledDefault(featureName string, defaultValue bool) bool {
	return f.client.IsEnabled(featureName, unleash.WithFallback(defaultValue))
}

// ProviderEnabled is the per-vendor kill switch. Providers are on unless
// explicitly toggled off.
func (f *FeatureManager) ProviderEnabled(provider string) bool {
	return f.IsEnabledDefault(FeatureProviderPrefix+provider, true)
}

func (f *FeatureManager) Close() error {
	f.log.I("Closing Unleash client")
	f.client.Close()
	return nil
}

func (f *FeatureManager) OnStop(ctx context.Context) error {
	return f.Close()
}

type unleashListener struct {
	log *tracing.Logger
}

func (l *unleashListener) OnReady() {
	l.log.I("Unleash client ready")
}

func (l *unleashListener) OnError(err error) {
	l.log.E("Unleash client error", tracing.InnerError, err)
}

func (l *unleashListener) OnWarning(warning error) {
	l.log.W("Unleash client warning", tracing.InnerError, warning)
}

func (l *unleashListener) OnCount(name string, enabled bool) {
}

func (l *unleashListener) OnSent(payload unleash.MetricsData) {
}

func (l *unleashListener) OnRegistered(payload unleash.ClientData) {
	l.log.I("Unleash client registered", "instance_id", payload.InstanceID)
}
