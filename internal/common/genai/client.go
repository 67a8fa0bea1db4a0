// Package genai wraps the generative model behind a request/response
// contract: rendered prompt in, candidate JSON text out. The model call is
// the single suspension point of a flow invocation; callers impose their own
// timeout through ctx.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"coincoach-backend/internal/common/config"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/common/metrics"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

var (
	ErrEmptyResponse = errors.New("model returned no candidates")
	ErrToolLoop      = errors.New("tool call budget exhausted")
)

// ChatCompleter is the slice of the OpenAI client the wrapper needs; tests
// substitute a fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Tool is a callable the model may invoke mid-generation. Args and the
// returned payload are JSON strings. Call must not return an error for
// domain-level failures; those belong inside the payload so generation can
// continue.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Call        func(ctx context.Context, args string) (string, error)
}

// Request carries one generation: a rendered prompt, the output shape the
// model must conform to, and any tools declared for the flow.
type Request struct {
	System       string
	Prompt       string
	OutputSchema map[string]interface{}
	Tools        []Tool
}

type Client struct {
	api          ChatCompleter
	model        string
	maxToolTurns int
	logger       logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:          openai.NewClientWithConfig(apiCfg),
		model:        cfg.Model,
		maxToolTurns: cfg.MaxToolTurns,
		logger:       log.WithFields(map[string]interface{}{"component": "genai"}),
	}
}

// NewClientWithAPI builds a client over an explicit API handle, used by tests.
func NewClientWithAPI(api ChatCompleter, model string, maxToolTurns int, log logger.Logger) *Client {
	return &Client{api: api, model: model, maxToolTurns: maxToolTurns, logger: log}
}

// Generate sends the prompt and returns the model's raw JSON text. Tool
// calls are resolved inline, bounded by maxToolTurns round trips.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.OutputSchema != nil {
		system = system + "\n\nRespond with a single JSON object conforming to this JSON schema:\n" + schemaJSON(req.OutputSchema)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
	}

	var tools []openai.Tool
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	for turn := 0; turn <= c.maxToolTurns; turn++ {
		apiReq := openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
		}
		if req.OutputSchema != nil {
			apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, apiReq)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			return StripFences(choice.Message.Content), nil
		}

		messages = append(messages, choice.Message)
		for _, tc := range choice.Message.ToolCalls {
			payload := c.runTool(ctx, req.Tools, tc.Function.Name, tc.Function.Arguments)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    payload,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", ErrToolLoop
}

func (c *Client) runTool(ctx context.Context, tools []Tool, name, args string) string {
	for _, t := range tools {
		if t.Name != name {
			continue
		}
		payload, err := t.Call(ctx, args)
		if err != nil {
			// Tools report domain failures as data; a Go error here is a
			// programming bug, surfaced to the model as a payload so the
			// generation is not aborted.
			c.logger.Error("tool call returned error", map[string]interface{}{
				"tool":  name,
				"error": err.Error(),
			})
			metrics.ToolCalls.WithLabelValues(name, "error").Inc()
			return fmt.Sprintf(`{"error":%q}`, err.Error())
		}
		outcome := "ok"
		if gjson.Get(payload, "error").Exists() {
			outcome = "soft_error"
		}
		metrics.ToolCalls.WithLabelValues(name, outcome).Inc()
		return payload
	}

	c.logger.Warn("model requested unknown tool", map[string]interface{}{"tool": name})
	metrics.ToolCalls.WithLabelValues(name, "unknown").Inc()
	return fmt.Sprintf(`{"error":"unknown tool %q"}`, name)
}

// StripFences removes a markdown code fence around a JSON payload, which
// some models emit despite the JSON response format.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if gjson.Valid(trimmed) {
		return trimmed
	}
	return s
}

func schemaJSON(schema map[string]interface{}) string {
	// Schemas are built in-process from validation.JSONSchema; marshal
	// cannot fail on them.
	b, _ := json.Marshal(schema)
	return string(b)
}
