package flow

import (
	"encoding/json"
	"sort"

	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/validation"
)

// Contract pairs a flow's input shape with its output shape, the prompt
// template bridging them, the tools the model may call, and the repair rules
// guarding the output. One Contract per flow variant; contracts are built
// once and read-only afterwards, so they are safe to share across
// concurrent invocations.
type Contract struct {
	Name         string
	Description  string
	Category     string
	InputSchema  validation.JSONSchema
	OutputSchema validation.JSONSchema
	System       string
	Template     string
	Tools        []genai.Tool
	Repairs      []Rule

	// CheckInput, when set, runs after schema validation for constraints
	// spanning more than one field. A non-nil result rejects the input.
	CheckInput func(input map[string]interface{}) *validation.ValidationError
}

// Registry holds the flow contracts known to the service, keyed by name.
type Registry struct {
	contracts map[string]*Contract
}

func NewRegistry() *Registry {
	return &Registry{contracts: make(map[string]*Contract)}
}

func (r *Registry) Register(c *Contract) {
	r.contracts[c.Name] = c
}

func (r *Registry) Get(name string) (*Contract, bool) {
	c, ok := r.contracts[name]
	return c, ok
}

// Names returns the registered flow names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode converts a typed input struct into the map form the invoker
// validates. Numbers become float64, matching decoded model output.
func Encode(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode converts a conforming artifact into a typed output struct.
func Decode(artifact map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
