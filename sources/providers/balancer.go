package providers

import (
	"musegate/sources/configuration"
	"musegate/sources/platform"

	"github.com/mr-karan/balance"
)

// ImageBalancer spreads unpinned image requests across the advanced image
// providers by configured weight.
type ImageBalancer struct {
	balancer *balance.Balance
}

func NewImageBalancer(config *configuration.Config) *ImageBalancer {
	weights := config.Providers.ImageWeights
	if len(weights) == 0 {
		weights = map[string]int{
			string(platform.QuotaDallE):      50,
			string(platform.QuotaMidjourney): 50,
		}
	}

	b := balance.NewBalance()
	for quota, weight := range weights {
		b.Add(quota, weight)
	}

	return &ImageBalancer{balancer: b}
}

func (x *ImageBalancer) Pick() platform.Quota {
	return platform.Quota(x.balancer.Get())
}
