// internal/flows/memeflip/flow_test.go
package memeflip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/flow"
)

type fakeModel struct {
	payload string
}

func (f *fakeModel) Generate(ctx context.Context, req genai.Request) (string, error) {
	return f.payload, nil
}

func TestMemeFlip_MissingWarningGetsDefault(t *testing.T) {
	payload := `{"coin":"Pepe","ticker":"PEPE","rationale":"Momentum spike.","riskLevel":"extreme","flipWindowHours":12,"confidence":35}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Budget: 100, RiskAppetite: "degen"})
	require.NoError(t, err)

	artifact, err := inv.Invoke(context.Background(), New(), input)
	require.NoError(t, err)

	var out Output
	require.NoError(t, flow.Decode(artifact, &out))
	assert.Equal(t, defaultWarning, out.Warning)
	assert.Equal(t, "extreme", out.RiskLevel)
}

func TestMemeFlip_BadRiskLevelFailsGeneration(t *testing.T) {
	payload := `{"coin":"Pepe","ticker":"PEPE","rationale":"x","riskLevel":"mild","flipWindowHours":12,"confidence":35,"warning":"w"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Budget: 100, RiskAppetite: "bold"})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
}

func TestMemeFlip_InputValidation(t *testing.T) {
	inv := flow.NewInvoker(&fakeModel{}, logger.NewNoOpLogger())

	_, err := inv.Invoke(context.Background(), New(), map[string]interface{}{
		"budget":       100.0,
		"riskAppetite": "reckless",
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "riskAppetite", se.Field)
}
