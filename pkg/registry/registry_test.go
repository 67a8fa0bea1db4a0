// pkg/registry/registry_test.go
package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/flows"
)

func testFlows() *FlowRegistry {
	tool := genai.Tool{
		Name: "get_coin_price",
		Call: func(ctx context.Context, args string) (string, error) { return "{}", nil },
	}
	return Build(flows.BuildRegistry(tool), "1.0.0")
}

func TestBuild(t *testing.T) {
	reg := testFlows()

	assert.Equal(t, "1.0.0", reg.Version)
	assert.NotEmpty(t, reg.LastUpdated)
	require.Len(t, reg.Flows, 9)

	byName := map[string]FlowEntry{}
	for _, entry := range reg.Flows {
		byName[entry.Name] = entry
		assert.NotEmpty(t, entry.Description, entry.Name)
		assert.NotEmpty(t, entry.InputSchema, entry.Name)
		assert.NotEmpty(t, entry.OutputSchema, entry.Name)
		assert.Contains(t, entry.ErrorCodes, "VALIDATION_FAILED", entry.Name)
		assert.Contains(t, entry.ErrorCodes, "GENERATION_FAILED", entry.Name)
	}

	chat := byName["coachchat"]
	assert.True(t, chat.ToolEnabled)
	assert.Equal(t, []string{"get_coin_price"}, chat.Tools)
	assert.Contains(t, chat.ErrorCodes, "TOOL_LOOKUP_FAILED")

	picks := byName["coinpicks"]
	assert.False(t, picks.ToolEnabled)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow-registry.json")
	reg := testFlows()

	require.NoError(t, SaveRegistry(path, reg))
	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	assert.Equal(t, reg.Version, loaded.Version)
	require.Len(t, loaded.Flows, len(reg.Flows))
	assert.Equal(t, reg.Flows[0].Name, loaded.Flows[0].Name)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
