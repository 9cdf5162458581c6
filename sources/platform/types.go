package platform

type ChatID int64

// Quota identifies one billable capability: a model (or model family) a user
// spends allowance on.
type Quota string

const (
	QuotaChatGPT    Quota = "chatgpt"
	QuotaChatGPT4   Quota = "chatgpt4"
	QuotaClaude     Quota = "claude"
	QuotaGemini     Quota = "gemini"
	QuotaDallE      Quota = "dalle"
	QuotaMidjourney Quota = "midjourney"
	QuotaStableArt  Quota = "stable_art"
	QuotaSuno       Quota = "suno"
	QuotaMelodist   Quota = "melodist"
	QuotaKling      Quota = "kling"
	QuotaRunway     Quota = "runway"
)

type TariffKey = string

const (
	TariffBronze TariffKey = "bronze"
	TariffSilver TariffKey = "silver"
	TariffGold   TariffKey = "gold"
)

type ResetPeriod = string

const (
	ResetPeriodDaily   ResetPeriod = "daily"
	ResetPeriodMonthly ResetPeriod = "monthly"
)

func BoolPtr(b bool) *bool {
	return &b
}

func BoolValue(b *bool, defaultValue bool) bool {
	if b == nil {
		return defaultValue
	}
	return *b
}

func StringPtr(s string) *string {
	return &s
}
