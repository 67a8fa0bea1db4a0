// internal/flows/portfolio/flow.go
package portfolio

import (
	"fmt"

	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Portfolio reviews are AI-generated opinions, not personalized financial advice."

// Coin names and tickers: letters, digits, spaces, and common symbol
// punctuation, up to 32 characters.
const coinNamePattern = `^[A-Za-z0-9$][A-Za-z0-9 .$-]{0,31}$`

type Holding struct {
	Coin              string  `json:"coin"`
	AllocationPercent float64 `json:"allocationPercent"`
}

type Input struct {
	Holdings []Holding `json:"holdings"`
}

type Verdict struct {
	Coin      string `json:"coin"`
	Verdict   string `json:"verdict"`
	Rationale string `json:"rationale"`
}

type Output struct {
	Verdicts      []Verdict `json:"verdicts"`
	OverallRisk   string    `json:"overallRisk"`
	RebalanceNote string    `json:"rebalanceNote"`
	Disclaimer    string    `json:"disclaimer"`
}

const systemPrompt = "You are a portfolio reviewer for retail crypto investors. Judge each holding on its own merits and the portfolio as a whole. Respond with JSON only."

const promptTemplate = "Review this crypto portfolio: {{holdings}}. For each holding return a verdict (hold, trim, add, or exit) with a rationale, then an overall risk level and a rebalancing note."

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "portfolio",
		Description: "Reviews a portfolio holding by holding.",
		Category:    "analysis",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"holdings": {
					Type:     "array",
					MinItems: validation.Int(1),
					MaxItems: validation.Int(20),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"coin":              {Type: "string", Pattern: validation.Str(coinNamePattern)},
							"allocationPercent": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
						},
						Required: []string{"coin", "allocationPercent"},
					},
				},
			},
			Required: []string{"holdings"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"verdicts": {
					Type:     "array",
					MinItems: validation.Int(1),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"coin":      {Type: "string"},
							"verdict":   {Type: "string", Enum: []string{"hold", "trim", "add", "exit"}},
							"rationale": {Type: "string"},
						},
						Required: []string{"coin", "verdict", "rationale"},
					},
				},
				"overallRisk":   {Type: "string", Enum: []string{"low", "medium", "high", "extreme"}},
				"rebalanceNote": {Type: "string"},
				"disclaimer":    {Type: "string"},
			},
			Required: []string{"verdicts", "overallRisk", "rebalanceNote", "disclaimer"},
		},
		System:     systemPrompt,
		Template:   promptTemplate,
		CheckInput: checkAllocation,
		Repairs: []flow.Rule{
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}

// checkAllocation rejects portfolios whose allocation percentages total more
// than 100. Under-allocation is fine; the remainder is treated as cash.
func checkAllocation(input map[string]interface{}) *validation.ValidationError {
	holdings, _ := input["holdings"].([]interface{})
	total := 0.0
	for _, h := range holdings {
		obj, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		if pct, ok := obj["allocationPercent"].(float64); ok {
			total += pct
		}
	}
	if total > 100 {
		return &validation.ValidationError{
			Field:   "holdings",
			Message: fmt.Sprintf("allocation percentages total %.1f, must not exceed 100", total),
			Code:    "ALLOCATION_SUM_VIOLATION",
		}
	}
	return nil
}
