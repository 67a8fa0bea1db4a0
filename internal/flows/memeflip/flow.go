// internal/flows/memeflip/flow.go
package memeflip

import (
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultWarning = "Meme coins are extremely speculative and can lose most of their value within hours. Flip only money you are fully prepared to lose."

type Input struct {
	Budget       float64 `json:"budget"`
	RiskAppetite string  `json:"riskAppetite"`
}

type Output struct {
	Coin            string  `json:"coin"`
	Ticker          string  `json:"ticker"`
	Rationale       string  `json:"rationale"`
	RiskLevel       string  `json:"riskLevel"`
	FlipWindowHours float64 `json:"flipWindowHours"`
	Confidence      float64 `json:"confidence"`
	Warning         string  `json:"warning"`
}

const systemPrompt = "You are a degen-savvy but honest meme-coin trader. You suggest short-horizon flips and never understate the risk. Respond with JSON only."

const promptTemplate = "Suggest one meme-coin flip for a budget of {{budget}} USD and a {{riskAppetite}} risk appetite. Include the coin, ticker, rationale, a risk level, the flip window in hours, a confidence score from 0 to 100, and an explicit warning."

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "memeflip",
		Description: "Suggests a short-horizon meme-coin flip with explicit risk framing.",
		Category:    "suggestions",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"budget":       {Type: "number", Minimum: validation.Float(1)},
				"riskAppetite": {Type: "string", Enum: []string{"cautious", "bold", "degen"}},
			},
			Required: []string{"budget", "riskAppetite"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"coin":            {Type: "string"},
				"ticker":          {Type: "string"},
				"rationale":       {Type: "string"},
				"riskLevel":       {Type: "string", Enum: []string{"high", "extreme"}},
				"flipWindowHours": {Type: "number", Minimum: validation.Float(1), Maximum: validation.Float(168)},
				"confidence":      {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
				"warning":         {Type: "string"},
			},
			Required: []string{"coin", "ticker", "rationale", "riskLevel", "flipWindowHours", "confidence", "warning"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.DefaultRule{FieldName: "warning", Value: defaultWarning},
		},
	}
}
