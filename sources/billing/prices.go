package billing

import (
	"musegate/sources/platform"

	"github.com/shopspring/decimal"
)

// Currency is the bookkeeping currency of expense transactions. Users spend
// quota units; the monetary amounts exist for spend reporting only.
const Currency = "USD"

var unitPrices = map[platform.Quota]decimal.Decimal{
	platform.QuotaChatGPT:    decimal.RequireFromString("0.01"),
	platform.QuotaChatGPT4:   decimal.RequireFromString("0.05"),
	platform.QuotaClaude:     decimal.RequireFromString("0.05"),
	platform.QuotaGemini:     decimal.RequireFromString("0.01"),
	platform.QuotaDallE:      decimal.RequireFromString("0.08"),
	platform.QuotaMidjourney: decimal.RequireFromString("0.10"),
	platform.QuotaStableArt:  decimal.RequireFromString("0.02"),
	platform.QuotaSuno:       decimal.RequireFromString("0.15"),
	platform.QuotaMelodist:   decimal.RequireFromString("0.12"),
	platform.QuotaKling:      decimal.RequireFromString("0.35"),
	platform.QuotaRunway:     decimal.RequireFromString("0.40"),
}

// PriceOf returns the internal unit price for the capability. Unknown keys
// price at zero rather than failing: a transaction row with a zero amount is
// still a usable audit record.
func PriceOf(quota platform.Quota) decimal.Decimal {
	if price, ok := unitPrices[quota]; ok {
		return price
	}
	return decimal.Zero
}
