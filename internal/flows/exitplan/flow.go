// internal/flows/exitplan/flow.go
package exitplan

import (
	"math"

	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Exit levels are AI-generated suggestions. Use limit orders and your own judgement."

type Input struct {
	Coin              string  `json:"coin"`
	EntryPrice        float64 `json:"entryPrice"`
	PositionSize      float64 `json:"positionSize"`
	TargetGainPercent float64 `json:"targetGainPercent"`
}

type Output struct {
	Coin              string   `json:"coin"`
	EntryPrice        float64  `json:"entryPrice"`
	TargetGainPercent float64  `json:"targetGainPercent"`
	ExitPrice         float64  `json:"exitPrice"`
	StopLossPrice     float64  `json:"stopLossPrice"`
	Steps             []string `json:"steps"`
	Rationale         string   `json:"rationale"`
	Disclaimer        string   `json:"disclaimer"`
}

const systemPrompt = "You are a disciplined cryptocurrency trade planner. You produce concrete exit plans with hard levels. Respond with JSON only."

const promptTemplate = "Plan an exit for a {{coin}} position of {{positionSize}} units entered at {{entryPrice}} USD, targeting a {{targetGainPercent}} percent gain. Echo the entry price and target gain, give the exit price, a stop-loss price, one to five concrete steps, and a rationale."

// Exit and stop levels are always recomputed from the echoed entry price and
// gain percent. The stop sits half the targeted gain below entry.
func exitPrice(obj map[string]interface{}) (interface{}, bool) {
	entry, okEntry := flow.NumberAt(obj, "entryPrice")
	gain, okGain := flow.NumberAt(obj, "targetGainPercent")
	if !okEntry || !okGain {
		return nil, false
	}
	return round4(entry * (1 + gain/100)), true
}

func stopLossPrice(obj map[string]interface{}) (interface{}, bool) {
	entry, okEntry := flow.NumberAt(obj, "entryPrice")
	gain, okGain := flow.NumberAt(obj, "targetGainPercent")
	if !okEntry || !okGain {
		return nil, false
	}
	return round4(entry * (1 - gain/200)), true
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "exitplan",
		Description: "Builds an exit plan with recomputed exit and stop levels.",
		Category:    "planning",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"coin":              {Type: "string", MinLength: validation.Int(1)},
				"entryPrice":        {Type: "number", Minimum: validation.Float(0)},
				"positionSize":      {Type: "number", Minimum: validation.Float(0)},
				"targetGainPercent": {Type: "number", Minimum: validation.Float(1), Maximum: validation.Float(1000)},
			},
			Required: []string{"coin", "entryPrice", "positionSize", "targetGainPercent"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"coin":              {Type: "string"},
				"entryPrice":        {Type: "number"},
				"targetGainPercent": {Type: "number"},
				"exitPrice":         {Type: "number"},
				"stopLossPrice":     {Type: "number"},
				"steps": {
					Type:     "array",
					MinItems: validation.Int(1),
					MaxItems: validation.Int(5),
					Items:    &validation.Property{Type: "string"},
				},
				"rationale":  {Type: "string"},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"coin", "entryPrice", "targetGainPercent", "exitPrice", "stopLossPrice", "steps", "rationale", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.DerivedRule{FieldName: "exitPrice", Compute: exitPrice},
			flow.DerivedRule{FieldName: "stopLossPrice", Compute: stopLossPrice},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
