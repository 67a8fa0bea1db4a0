// internal/flows/riskprofile/flow.go
package riskprofile

import (
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Risk profiling is indicative only and does not replace professional financial planning."

type Input struct {
	ExperienceYears   int     `json:"experienceYears"`
	MaxLossPercent    float64 `json:"maxLossPercent"`
	CryptoAllocation  float64 `json:"cryptoAllocation"`
	InvestmentHorizon string  `json:"investmentHorizon"`
}

type Output struct {
	Score      float64 `json:"score"`
	Verdict    string  `json:"verdict"`
	Rationale  string  `json:"rationale"`
	Disclaimer string  `json:"disclaimer"`
}

const systemPrompt = "You are a risk assessment analyst for retail crypto investors. Score conservatively. Respond with JSON only."

const promptTemplate = "Assess the risk profile of an investor with {{experienceYears}} years of trading experience, a maximum tolerable loss of {{maxLossPercent}} percent, {{cryptoAllocation}} percent of their portfolio in crypto, and a {{investmentHorizon}} investment horizon. Return a score from 0 (very conservative) to 100 (very aggressive), a verdict, and a rationale."

// clampScore keeps a model-provided score inside [0,100]. The score itself
// stays authoritative-from-model; only out-of-range values are pulled back.
func clampScore(obj map[string]interface{}) (interface{}, bool) {
	score, ok := flow.NumberAt(obj, "score")
	if !ok {
		return nil, false
	}
	if score < 0 {
		return 0.0, true
	}
	if score > 100 {
		return 100.0, true
	}
	return score, true
}

func New() *flow.Contract {
	return &flow.Contract{
		Name:        "riskprofile",
		Description: "Scores an investor's risk profile from a short questionnaire.",
		Category:    "analysis",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"experienceYears":   {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(60)},
				"maxLossPercent":    {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
				"cryptoAllocation":  {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
				"investmentHorizon": {Type: "string", Enum: []string{"short", "medium", "long"}},
			},
			Required: []string{"experienceYears", "maxLossPercent", "cryptoAllocation", "investmentHorizon"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"score":      {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(100)},
				"verdict":    {Type: "string", Enum: []string{"conservative", "balanced", "aggressive"}},
				"rationale":  {Type: "string"},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"score", "verdict", "rationale", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Repairs: []flow.Rule{
			flow.DerivedRule{FieldName: "score", Compute: clampScore},
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
