// internal/flows/breakout/flow.go
package breakout

import (
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Breakout alerts are AI-generated pattern reads, not trade instructions. Always confirm levels against live data."

type Input struct {
	Watchlist []string `json:"watchlist,omitempty"`
	Timeframe string   `json:"timeframe"`
}

type Alert struct {
	Coin         string  `json:"coin"`
	Ticker       string  `json:"ticker"`
	TriggerPrice float64 `json:"triggerPrice"`
	AlertDate    string  `json:"alertDate"`
	Rationale    string  `json:"rationale"`
}

type Output struct {
	Alerts     []Alert `json:"alerts"`
	Disclaimer string  `json:"disclaimer"`
}

const systemPrompt = "You are a technical analyst watching cryptocurrency charts for breakout setups. Respond with JSON only."

const promptTemplate = "List the most promising breakout setups on the {{timeframe}} timeframe." +
	"{{#if watchlist}} Restrict your analysis to these coins: {{watchlist}}.{{/if}}" +
	" For each alert include the coin, ticker, trigger price, expected alert date, and rationale. Return between one and five alerts."

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "breakout",
		Description: "Flags coins approaching technical breakout levels.",
		Category:    "alerts",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"watchlist": {
					Type:     "array",
					MaxItems: validation.Int(20),
					Items:    &validation.Property{Type: "string"},
				},
				"timeframe": {Type: "string", Enum: []string{"1h", "4h", "1d", "1w"}},
			},
			Required: []string{"timeframe"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"alerts": {
					Type:     "array",
					MinItems: validation.Int(1),
					MaxItems: validation.Int(5),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"coin":         {Type: "string"},
							"ticker":       {Type: "string"},
							"triggerPrice": {Type: "number", Minimum: validation.Float(0)},
							"alertDate":    {Type: "string"},
							"rationale":    {Type: "string"},
						},
						Required: []string{"coin", "ticker", "triggerPrice", "alertDate", "rationale"},
					},
				},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"alerts", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.EachRule{
				FieldName: "alerts",
				Inner:     flow.DateYearRule{FieldName: "alertDate"},
			},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
