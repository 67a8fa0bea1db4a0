// internal/flows/coachchat/flow.go
package coachchat

import (
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/validation"
	"coincoach-backend/internal/flow"
)

const defaultDisclaimer = "Your coach is an AI model. Nothing it says is financial advice."

type Input struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Output struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions,omitempty"`
	Disclaimer  string   `json:"disclaimer"`
}

const systemPrompt = "You are a friendly but candid cryptocurrency trading coach. When the user asks about a specific coin's price, use the price lookup tool rather than guessing. Respond with JSON only."

const promptTemplate = "{{#if history}}Conversation so far: {{history}}\n{{/if}}User message: {{message}}\nReply as the coach. Include up to three short follow-up suggestions."

// New builds the coach-chat contract. This is the one tool-enabled flow:
// the model may call the supplied price lookup mid-generation.
func New(priceTool genai.Tool) *flow.Contract {
	return &flow.Contract{
		Name:        "coachchat",
		Description: "Conversational coach with live price lookup.",
		Category:    "chat",
		InputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"message": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(2000)},
				"history": {
					Type:     "array",
					MaxItems: validation.Int(50),
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"role": {Type: "string", Enum: []string{"user", "coach"}},
							"text": {Type: "string"},
						},
						Required: []string{"role", "text"},
					},
				},
			},
			Required: []string{"message"},
		},
		OutputSchema: validation.JSONSchema{
			Type: "object",
			Properties: map[string]validation.Property{
				"reply": {Type: "string", MinLength: validation.Int(1)},
				"suggestions": {
					Type:     "array",
					MaxItems: validation.Int(3),
					Items:    &validation.Property{Type: "string"},
				},
				"disclaimer": {Type: "string"},
			},
			Required: []string{"reply", "disclaimer"},
		},
		System:   systemPrompt,
		Template: promptTemplate,
		Tools:    []genai.Tool{priceTool},
		Repairs: []flow.Rule{
			flow.DefaultRule{FieldName: "disclaimer", Value: defaultDisclaimer},
		},
	}
}
