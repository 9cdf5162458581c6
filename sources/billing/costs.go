package billing

import (
	"strings"
	"musegate/sources/configuration"
	"musegate/sources/tracing"

	"github.com/pkoukk/tiktoken-go"
)

// CostEstimator converts provider-specific generation settings into the
// integer unit counts the ledger debits. The same unit scale feeds the
// admission check, so both sides agree on what a generation costs.
type CostEstimator struct {
	encoder *tiktoken.Tiktoken
}

func NewCostEstimator(config *configuration.Config, log *tracing.Logger) *CostEstimator {
	encoding := config.Providers.TextTokenEncoder
	if encoding == "" {
		encoding = "cl100k_base"
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		log.W("Failed to load token encoding, falling back to rune estimate", tracing.InnerError, err, "encoding", encoding)
		encoder = nil
	}

	return &CostEstimator{encoder: encoder}
}

// TextCost charges one unit per started thousand prompt tokens.
func (x *CostEstimator) TextCost(prompt string) int {
	tokens := x.CountTokens(prompt)
	cost := (tokens + 999) / 1000
	if cost < 1 {
		cost = 1
	}
	return cost
}

func (x *CostEstimator) CountTokens(text string) int {
	if x.encoder != nil {
		return len(x.encoder.Encode(text, nil, nil))
	}
	// Rough heuristic when the encoding tables are unavailable.
	return (len(text) + 3) / 4
}

// ImageCost scales with resolution and quality: the base unit covers up to
// 1024px on the long side, larger renders and HD quality double it.
func (x *CostEstimator) ImageCost(width, height int, quality string) int {
	cost := 1

	long := width
	if height > long {
		long = height
	}
	if long > 1024 {
		cost *= 2
	}

	if strings.EqualFold(quality, "hd") {
		cost *= 2
	}

	return cost
}

// VideoCost charges one unit per started five seconds, doubled in pro mode.
func (x *CostEstimator) VideoCost(durationSeconds int, mode string) int {
	if durationSeconds < 1 {
		durationSeconds = 1
	}

	cost := (durationSeconds + 4) / 5
	if strings.EqualFold(mode, "pro") {
		cost *= 2
	}

	return cost
}

// MusicCost is flat per track regardless of duration.
func (x *CostEstimator) MusicCost(durationSeconds int) int {
	return 1
}
