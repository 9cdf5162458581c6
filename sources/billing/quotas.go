package billing

import "musegate/sources/platform"

// Class groups capability keys that share one pooled daily allowance.
// Consuming a unit of any key in a class draws down the whole class: the
// product sells tier bundles ("N advanced images a day"), not per-model
// quotas.
type Class string

const (
	ClassTextSimple    Class = "text_simple"
	ClassTextAdvanced  Class = "text_advanced"
	ClassImageSimple   Class = "image_simple"
	ClassImageAdvanced Class = "image_advanced"
	ClassMusic         Class = "music"
	ClassVideo         Class = "video"
)

var classMembers = map[Class][]platform.Quota{
	ClassTextSimple:    {platform.QuotaChatGPT, platform.QuotaGemini},
	ClassTextAdvanced:  {platform.QuotaChatGPT4, platform.QuotaClaude},
	ClassImageSimple:   {platform.QuotaStableArt},
	ClassImageAdvanced: {platform.QuotaDallE, platform.QuotaMidjourney},
	ClassMusic:         {platform.QuotaSuno, platform.QuotaMelodist},
	ClassVideo:         {platform.QuotaKling, platform.QuotaRunway},
}

var quotaClass = func() map[platform.Quota]Class {
	index := make(map[platform.Quota]Class)
	for class, members := range classMembers {
		for _, quota := range members {
			index[quota] = class
		}
	}
	return index
}()

func ClassOf(quota platform.Quota) Class {
	return quotaClass[quota]
}

// Siblings returns every capability key sharing the quota's class,
// the requested key included. Unknown keys are their own class.
func Siblings(quota platform.Quota) []platform.Quota {
	class, ok := quotaClass[quota]
	if !ok {
		return []platform.Quota{quota}
	}
	return classMembers[class]
}
