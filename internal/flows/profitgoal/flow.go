// internal/flows/profitgoal/flow.go
package profitgoal

import (
	"math"

	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const (
	seriesPoints = 30

	defaultDisclaimer = "Profit targets are estimates generated by an AI model, not guarantees. This is not financial advice."
)

type Input struct {
	CurrentCapital    float64 `json:"currentCapital"`
	TargetGainPercent float64 `json:"targetGainPercent"`
	TimeframeDays     int     `json:"timeframeDays,omitempty"`
}

type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type Output struct {
	Coin              string                   `json:"coin"`
	Ticker            string                   `json:"ticker"`
	Rationale         string                   `json:"rationale"`
	TargetGainPercent float64                  `json:"targetGainPercent"`
	EntryPriceRange   PriceRange               `json:"entryPriceRange"`
	ExitPriceRange    PriceRange               `json:"exitPriceRange"`
	PriceHistory      []map[string]interface{} `json:"priceHistory"`
	Disclaimer        string                   `json:"disclaimer"`
}

const systemPrompt = "You are a cryptocurrency trading strategist. You recommend a single trade designed to hit a stated profit goal, with an honest rationale. Respond with JSON only."

const promptTemplate = "Recommend one cryptocurrency trade to grow {{currentCapital}} USD by {{targetGainPercent}} percent." +
	"{{#if timeframeDays}} The trade should play out within {{timeframeDays}} days.{{/if}}" +
	" Include the coin, ticker, rationale, the target gain percent you are actually recommending, an entry price range, an exit price range consistent with the gain, and a 30-point daily price history."

// exitRange recomputes the exit price range from the entry range and the
// gain percent. The model's own exit numbers are discarded so the gain and
// the range can never disagree.
func exitRange(obj map[string]interface{}) (interface{}, bool) {
	low, okLow := flow.NumberAt(obj, "entryPriceRange", "low")
	high, okHigh := flow.NumberAt(obj, "entryPriceRange", "high")
	gain, okGain := flow.NumberAt(obj, "targetGainPercent")
	if !okLow || !okHigh || !okGain {
		return nil, false
	}
	factor := 1 + gain/100
	return map[string]interface{}{
		"low":  round4(low * factor),
		"high": round4(high * factor),
	}, true
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func New() *flow.Contract {
	rangeProp := validation.Property{
		Type: "object",
		Properties: map[string]validation.Property{
			"low":  {Type: "number"},
			"high": {Type: "number"},
		},
		Required: []string{"low", "high"},
	}

	return &flow.Contract{
		Name:        "profitgoal",
		Description: "Plans a single trade toward a stated profit goal.",
		Category:    "suggestions",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"currentCapital":    {Type: "number", Minimum: validation.Float(1)},
				"targetGainPercent": {Type: "number", Minimum: validation.Float(1), Maximum: validation.Float(1000)},
				"timeframeDays":     {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(365)},
			},
			Required: []string{"currentCapital", "targetGainPercent"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"coin":              {Type: "string"},
				"ticker":            {Type: "string"},
				"rationale":         {Type: "string"},
				"targetGainPercent": {Type: "number", Minimum: validation.Float(0)},
				"entryPriceRange":   rangeProp,
				"exitPriceRange":    rangeProp,
				"priceHistory": {
					Type:     "array",
					MinItems: validation.Int(seriesPoints),
					MaxItems: validation.Int(seriesPoints),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"date":  {Type: "string"},
							"open":  {Type: "number"},
							"high":  {Type: "number"},
							"low":   {Type: "number"},
							"close": {Type: "number"},
						},
						Required: []string{"date", "open", "high", "low", "close"},
					},
				},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"coin", "ticker", "rationale", "targetGainPercent", "entryPriceRange", "exitPriceRange", "priceHistory", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.DerivedRule{FieldName: "exitPriceRange", Compute: exitRange},
			flow.SeriesRule{
				FieldName: "priceHistory",
				Points:    seriesPoints,
				SeedPath:  []string{"entryPriceRange", "low"},
			},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
