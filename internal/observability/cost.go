package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/tutor-api/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6
	defaultPricingModel = "qwen-max"

	// Qwen pricing (international endpoint)
	qwenMaxInputPrice    = 0.0016
	qwenMaxOutputPrice   = 0.0064
	qwenPlusInputPrice   = 0.0004
	qwenPlusOutputPrice  = 0.0012
	qwenTurboInputPrice  = 0.00005
	qwenTurboOutputPrice = 0.0002
	qwenVLMaxInputPrice  = 0.0008
	qwenVLMaxOutputPrice = 0.0032

	// Gemini pricing
	gemini25FlashInputPrice  = 0.0003
	gemini25FlashOutputPrice = 0.0025
	gemini25ProInputPrice    = 0.00125
	gemini25ProOutputPrice   = 0.01
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all models
var PricingTable = map[string]ModelPricing{
	"qwen-max":         {InputPricePer1K: qwenMaxInputPrice, OutputPricePer1K: qwenMaxOutputPrice},
	"qwen-plus":        {InputPricePer1K: qwenPlusInputPrice, OutputPricePer1K: qwenPlusOutputPrice},
	"qwen-turbo":       {InputPricePer1K: qwenTurboInputPrice, OutputPricePer1K: qwenTurboOutputPrice},
	"qwen-vl-max":      {InputPricePer1K: qwenVLMaxInputPrice, OutputPricePer1K: qwenVLMaxOutputPrice},
	"gemini-2.5-flash": {InputPricePer1K: gemini25FlashInputPrice, OutputPricePer1K: gemini25FlashOutputPrice},
	"gemini-2.5-pro":   {InputPricePer1K: gemini25ProInputPrice, OutputPricePer1K: gemini25ProOutputPrice},
}

// PricingFor returns the pricing of the longest table entry that prefixes model,
// so dated snapshots like "qwen-max-2025-01-25" share their family's price.
// Unknown models are priced as qwen-max.
func PricingFor(model string) ModelPricing {
	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		best = defaultPricingModel
	}
	return PricingTable[best]
}

// CalculateCost returns the input and output cost in USD for one call
func CalculateCost(model string, usage llm.Usage) (float64, float64) {
	pricing := PricingFor(model)
	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K
	return inputCost, outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
