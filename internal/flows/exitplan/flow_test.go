// internal/flows/exitplan/flow_test.go
package exitplan

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

func TestExitPlan_RecomputesLevels(t *testing.T) {
	// Model returns inconsistent levels; both must be recomputed from the
	// echoed entry price and gain percent.
	payload := `{"coin":"ETH","entryPrice":2000,"targetGainPercent":10,"exitPrice":9999,"stopLossPrice":1,` +
		`"steps":["Set a limit sell","Set the stop"],"rationale":"Clean resistance overhead.","disclaimer":"d"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Coin: "ETH", EntryPrice: 2000, PositionSize: 1.5, TargetGainPercent: 10})
	require.NoError(t, err)

	artifact, err := inv.Invoke(context.Background(), New(), input)
	require.NoError(t, err)

	var out Output
	require.NoError(t, flow.Decode(artifact, &out))
	assert.Equal(t, 2200.0, out.ExitPrice)
	assert.Equal(t, 1900.0, out.StopLossPrice)
}

func TestExitPlan_LevelsIdempotent(t *testing.T) {
	obj := map[string]interface{}{"entryPrice": 2000.0, "targetGainPercent": 10.0}

	first, ok := exitPrice(obj)
	require.True(t, ok)
	obj["exitPrice"] = first
	second, ok := exitPrice(obj)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestExitPlan_MissingEchoFieldsFailGeneration(t *testing.T) {
	// Without the echoed entry price the derived rules cannot run and the
	// output is irrecoverably short.
	payload := `{"coin":"ETH","targetGainPercent":10,"steps":["s"],"rationale":"r","disclaimer":"d"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Coin: "ETH", EntryPrice: 2000, PositionSize: 1, TargetGainPercent: 10})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
}

func TestExitPlan_InputValidation(t *testing.T) {
	inv := flow.NewInvoker(&fakeModel{}, logger.NewNoOpLogger())

	_, err := inv.Invoke(context.Background(), New(), map[string]interface{}{
		"coin": "ETH", "entryPrice": 2000.0, "positionSize": 1.0,
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "targetGainPercent", se.Field)
}
