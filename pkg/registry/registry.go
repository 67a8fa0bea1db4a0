// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/flow"
)

func LoadRegistry(path string) (*FlowRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FlowRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

func SaveRegistry(path string, reg *FlowRegistry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Build derives the catalog from the live flow contracts so the two can
// never drift apart.
func Build(flows *flow.Registry, version string) *FlowRegistry {
	entries := make([]FlowEntry, 0, len(flows.Names()))
	for _, name := range flows.Names() {
		contract, _ := flows.Get(name)

		toolNames := make([]string, 0, len(contract.Tools))
		for _, tool := range contract.Tools {
			toolNames = append(toolNames, tool.Name)
		}
		sort.Strings(toolNames)

		codes := []string{
			string(errors.ErrCodeValidationFailed),
			string(errors.ErrCodeGenerationFailed),
		}
		if len(contract.Tools) > 0 {
			codes = append(codes, string(errors.ErrCodeToolLookupFailed))
		}

		entries = append(entries, FlowEntry{
			Name:         contract.Name,
			Description:  contract.Description,
			Category:     contract.Category,
			ToolEnabled:  len(contract.Tools) > 0,
			Tools:        toolNames,
			InputSchema:  contract.InputSchema.ToMap(),
			OutputSchema: contract.OutputSchema.ToMap(),
			ErrorCodes:   codes,
		})
	}

	return &FlowRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Flows:       entries,
	}
}
