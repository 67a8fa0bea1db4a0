// internal/flows/sentiment/flow.go
package sentiment

import (
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Sentiment reads are AI-generated snapshots and can be wrong. Not financial advice."

type Input struct {
	Coins     []string `json:"coins,omitempty"`
	Timeframe string   `json:"timeframe"`
}

type Output struct {
	Mood       string   `json:"mood"`
	Drivers    []string `json:"drivers"`
	Summary    string   `json:"summary"`
	AsOfDate   string   `json:"asOfDate"`
	Disclaimer string   `json:"disclaimer"`
}

const systemPrompt = "You are a market sentiment analyst for cryptocurrencies. You weigh news flow, funding rates, and social chatter. Respond with JSON only."

const promptTemplate = "Summarize crypto market sentiment over the last {{timeframe}}." +
	"{{#if coins}} Focus on: {{coins}}.{{/if}}" +
	" Return an overall mood, one to five sentiment drivers, a short summary, and the date the read applies to."

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "sentiment",
		Description: "Summarizes market sentiment for a timeframe.",
		Category:    "analysis",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"coins": {
					Type:     "array",
					MaxItems: validation.Int(10),
					Items:    &validation.Property{Type: "string"},
				},
				"timeframe": {Type: "string", Enum: []string{"24h", "7d", "30d"}},
			},
			Required: []string{"timeframe"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"mood": {Type: "string", Enum: []string{"bearish", "neutral", "bullish"}},
				"drivers": {
					Type:     "array",
					MinItems: validation.Int(1),
					MaxItems: validation.Int(5),
					Items:    &validation.Property{Type: "string"},
				},
				"summary":    {Type: "string"},
				"asOfDate":   {Type: "string"},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"mood", "drivers", "summary", "asOfDate", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.DateYearRule{FieldName: "asOfDate"},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
