package providers

import (
	"fmt"
	"musegate/sources/platform"
)

type Registry struct {
	byName  map[string]Adapter
	byQuota map[platform.Quota]Adapter
}

func NewRegistry(openrouter *OpenRouterAdapter, dalle *DallEAdapter, midjourney *MidjourneyAdapter, suno *SunoAdapter, kling *KlingAdapter) *Registry {
	registry := &Registry{
		byName:  map[string]Adapter{},
		byQuota: map[platform.Quota]Adapter{},
	}

	for _, adapter := range []Adapter{openrouter, dalle, midjourney, suno, kling} {
		registry.byName[adapter.Name()] = adapter
	}

	registry.byQuota[platform.QuotaChatGPT] = openrouter
	registry.byQuota[platform.QuotaChatGPT4] = openrouter
	registry.byQuota[platform.QuotaClaude] = openrouter
	registry.byQuota[platform.QuotaGemini] = openrouter
	registry.byQuota[platform.QuotaDallE] = dalle
	registry.byQuota[platform.QuotaMidjourney] = midjourney
	registry.byQuota[platform.QuotaSuno] = suno
	registry.byQuota[platform.QuotaKling] = kling

	return registry
}

func (x *Registry) ByName(name string) (Adapter, error) {
	adapter, ok := x.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return adapter, nil
}

func (x *Registry) ByQuota(quota platform.Quota) (Adapter, error) {
	adapter, ok := x.byQuota[quota]
	if !ok {
		return nil, fmt.Errorf("no provider serves quota %q", quota)
	}
	return adapter, nil
}
