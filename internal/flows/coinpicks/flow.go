// internal/flows/coinpicks/flow.go
package coinpicks

import (
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const (
	pickCount    = 3
	seriesPoints = 30

	defaultDisclaimer = "This is AI-generated analysis, not financial advice. Crypto markets are volatile; never invest more than you can afford to lose."
)

// Input is the caller-supplied request for coin picks.
type Input struct {
	Budget        float64 `json:"budget"`
	RiskTolerance string  `json:"riskTolerance"`
	HorizonDays   int     `json:"horizonDays,omitempty"`
}

type Pick struct {
	Coin            string                   `json:"coin"`
	Ticker          string                   `json:"ticker"`
	Rationale       string                   `json:"rationale"`
	Confidence      float64                  `json:"confidence"`
	EntryPriceRange PriceRange               `json:"entryPriceRange"`
	PriceHistory    []map[string]interface{} `json:"priceHistory"`
}

type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type Output struct {
	Picks      []Pick `json:"picks"`
	Disclaimer string `json:"disclaimer"`
}

const systemPrompt = "You are a cryptocurrency market analyst. You produce concrete, diversified coin picks with honest rationale. Respond with JSON only."

const promptTemplate = "Suggest exactly 3 cryptocurrency picks for a budget of {{budget}} USD with {{riskTolerance}} risk tolerance." +
	"{{#if horizonDays}} The investment horizon is {{horizonDays}} days.{{/if}}" +
	" For each pick include the coin name, ticker, a rationale, a confidence score from 0 to 100, an entry price range, and a 30-point daily price history ending at the most recent trading day."

func candleProperty() validation.Property {
	return validation.Property{
		Type: "object",
		Properties: map[string]validation.Property{
			"date":  {Type: "string"},
			"open":  {Type: "number"},
			"high":  {Type: "number"},
			"low":   {Type: "number"},
			"close": {Type: "number"},
		},
		Required: []string{"date", "open", "high", "low", "close"},
	}
}

// New builds the coin-picks contract.
func New() *flow.Contract {
	return &flow.Contract{
		Name:        "coinpicks",
		Description: "Suggests three cryptocurrency picks for a budget and risk tolerance.",
		Category:    "suggestions",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"budget":        {Type: "number", Minimum: validation.Float(1)},
				"riskTolerance": {Type: "string", Enum: []string{"low", "medium", "high"}},
				"horizonDays":   {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(365)},
			},
			Required: []string{"budget", "riskTolerance"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"picks": {
					Type:     "array",
					MinItems: validation.Int(pickCount),
					MaxItems: validation.Int(pickCount),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"coin":       {Type: "string"},
							"ticker":     {Type: "string"},
							"rationale":  {Type: "string"},
							"confidence": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
							"entryPriceRange": {
								Type: "object",
								Properties: map[string]validation.Property{
									"low":  {Type: "number"},
									"high": {Type: "number"},
								},
								Required: []string{"low", "high"},
							},
							"priceHistory": {
								Type:     "array",
								MinItems: validation.Int(seriesPoints),
								MaxItems: validation.Int(seriesPoints),
								Items:    ptr(candleProperty()),
							},
						},
						Required: []string{"coin", "ticker", "rationale", "confidence", "entryPriceRange", "priceHistory"},
					},
				},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"picks", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.EachRule{
				FieldName: "picks",
				Inner: flow.SeriesRule{
					FieldName: "priceHistory",
					Points:    seriesPoints,
					SeedPath:  []string{"entryPriceRange", "low"},
				},
			},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}

func ptr(p validation.Property) *validation.Property { return &p }
