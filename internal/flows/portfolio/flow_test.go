// internal/flows/portfolio/flow_test.go
package portfolio

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
	lastReq genai.Request
}

func (f *fakeModel) Generate(ctx context.Context, req genai.Request) (string, error) {
	f.lastReq = req
	return f.payload, nil
}

func TestPortfolio_Success(t *testing.T) {
	payload := `{"verdicts":[
		{"coin":"Bitcoin","verdict":"hold","rationale":"Core position."},
		{"coin":"Pepe","verdict":"trim","rationale":"Oversized meme exposure."}
	],"overallRisk":"medium","rebalanceNote":"Shift 5% from PEPE into BTC."}`
	model := &fakeModel{payload: payload}
	inv := flow.NewInvoker(model, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Holdings: []Holding{
		{Coin: "Bitcoin", AllocationPercent: 60},
		{Coin: "Pepe", AllocationPercent: 40},
	}})
	require.NoError(t, err)

	artifact, err := inv.Invoke(context.Background(), New(), input)
	require.NoError(t, err)

	var out Output
	require.NoError(t, flow.Decode(artifact, &out))
	require.Len(t, out.Verdicts, 2)
	assert.Equal(t, "trim", out.Verdicts[1].Verdict)
	assert.Equal(t, defaultDisclaimer, out.Disclaimer)
	assert.Contains(t, model.lastReq.Prompt, "Bitcoin")
}

func TestPortfolio_EmptyHoldingsRejected(t *testing.T) {
	inv := flow.NewInvoker(&fakeModel{}, logger.NewNoOpLogger())

	_, err := inv.Invoke(context.Background(), New(), map[string]interface{}{
		"holdings": []interface{}{},
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "holdings", se.Field)
}

func TestPortfolio_OverAllocationRejected(t *testing.T) {
	model := &fakeModel{}
	inv := flow.NewInvoker(model, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Holdings: []Holding{
		{Coin: "Bitcoin", AllocationPercent: 90},
		{Coin: "Ethereum", AllocationPercent: 90},
	}})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "holdings", se.Field)
	assert.Empty(t, model.lastReq.Prompt, "the model is never called")
}

func TestPortfolio_FullAllocationAccepted(t *testing.T) {
	payload := `{"verdicts":[{"coin":"Bitcoin","verdict":"hold","rationale":"r"}],"overallRisk":"low","rebalanceNote":"n","disclaimer":"d"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Holdings: []Holding{
		{Coin: "Bitcoin", AllocationPercent: 60},
		{Coin: "Ethereum", AllocationPercent: 40},
	}})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)
	assert.NoError(t, err)
}

func TestPortfolio_CoinNameRejected(t *testing.T) {
	inv := flow.NewInvoker(&fakeModel{}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Holdings: []Holding{
		{Coin: "bitcoin\nDROP TABLE", AllocationPercent: 50},
	}})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "holdings[0].coin", se.Field)
}

func TestPortfolio_UnknownVerdictFailsGeneration(t *testing.T) {
	payload := `{"verdicts":[{"coin":"Bitcoin","verdict":"moon","rationale":"r"}],"overallRisk":"low","rebalanceNote":"n","disclaimer":"d"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Holdings: []Holding{{Coin: "Bitcoin", AllocationPercent: 100}}})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
}
