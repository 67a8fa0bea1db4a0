package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/common/metrics"
	"coincoach-backend/internal/common/validation"

	"github.com/xeipuuv/gojsonschema"
)

// Generator is the model boundary the invoker suspends on. Satisfied by
// *genai.Client; tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (string, error)
}

// Invoker orchestrates one flow invocation: validate input, render the
// prompt, call the model, repair the candidate output, validate it against
// the output shape, return it. Each invocation owns its input, rendered
// prompt, and candidate output exclusively; the invoker itself holds no
// per-invocation state, so concurrent invocations need no coordination.
type Invoker struct {
	model  Generator
	logger logger.Logger
}

func NewInvoker(model Generator, log logger.Logger) *Invoker {
	return &Invoker{
		model:  model,
		logger: log.WithFields(map[string]interface{}{"component": "flow-invoker"}),
	}
}

// Invoke runs a contract against a caller-supplied input. It returns either
// a value fully conforming to the contract's output shape, a validation
// error naming the offending input field, or a generation error — never a
// partially conforming value. The model call is the single suspension point;
// no timeout is imposed here, the caller bounds ctx.
func (inv *Invoker) Invoke(ctx context.Context, c *Contract, input map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()
	metrics.FlowInvocations.WithLabelValues(c.Name).Inc()

	artifact, err := inv.invoke(ctx, c, input)

	metrics.FlowDuration.WithLabelValues(c.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		code := "UNKNOWN"
		if apperrors.IsValidation(err) {
			code = string(apperrors.ErrCodeValidationFailed)
		} else if apperrors.IsGeneration(err) {
			code = string(apperrors.ErrCodeGenerationFailed)
		}
		metrics.FlowFailures.WithLabelValues(c.Name, code).Inc()
		return nil, err
	}
	return artifact, nil
}

func (inv *Invoker) invoke(ctx context.Context, c *Contract, input map[string]interface{}) (map[string]interface{}, error) {
	log := inv.logger.WithFields(map[string]interface{}{"flow": c.Name})

	// Input failures always surface; inputs are never defaulted.
	if result := validation.Validate(input, c.InputSchema); !result.Valid {
		first := result.First()
		log.Warn("input rejected", map[string]interface{}{
			"field":  first.Field,
			"reason": first.Message,
		})
		return nil, apperrors.NewValidationError(first.Field, first.Message)
	}
	if c.CheckInput != nil {
		if verr := c.CheckInput(input); verr != nil {
			log.Warn("input rejected", map[string]interface{}{
				"field":  verr.Field,
				"reason": verr.Message,
			})
			return nil, apperrors.NewValidationError(verr.Field, verr.Message)
		}
	}

	prompt := Render(c.Template, input)

	raw, err := inv.model.Generate(ctx, genai.Request{
		System:       c.System,
		Prompt:       prompt,
		OutputSchema: c.OutputSchema.ToMap(),
		Tools:        c.Tools,
	})
	if err != nil {
		return nil, apperrors.NewGenerationError("model call failed", err)
	}
	if raw == "" {
		return nil, apperrors.NewGenerationError("model returned empty output", nil)
	}

	var artifact map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &artifact); err != nil {
		return nil, apperrors.NewGenerationError("model output is not a JSON object", err)
	}

	for _, rule := range c.Repairs {
		if rule.Apply(artifact) {
			metrics.FlowRepairs.WithLabelValues(c.Name, rule.Field()).Inc()
			log.Debug("repair applied", map[string]interface{}{"field": rule.Field()})
		}
	}

	if err := inv.checkOutput(c, artifact); err != nil {
		return nil, err
	}

	return artifact, nil
}

// checkOutput validates the repaired artifact against the output shape.
// Repair is the last line of defense; anything still non-conforming means a
// required non-derivable field is unusable and the whole invocation fails.
func (inv *Invoker) checkOutput(c *Contract, artifact map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(c.OutputSchema.ToMap())
	documentLoader := gojsonschema.NewGoLoader(artifact)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperrors.NewGenerationError("output schema check failed", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return apperrors.NewGenerationError(
			fmt.Sprintf("output does not conform: %s: %s", first.Field(), first.Description()), nil)
	}
	return nil
}
