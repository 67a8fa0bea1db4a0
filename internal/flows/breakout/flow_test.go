// internal/flows/breakout/flow_test.go
package breakout

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

func TestBreakout_NormalizesStaleDates(t *testing.T) {
	payload := `{"alerts":[
		{"coin":"Bitcoin","ticker":"BTC","triggerPrice":70000,"alertDate":"2023-03-15","rationale":"Ascending triangle."},
		{"coin":"Solana","ticker":"SOL","triggerPrice":250,"alertDate":"not a date","rationale":"Range compression."}
	],"disclaimer":"Check the charts."}`
	model := &fakeModel{payload: payload}
	inv := flow.NewInvoker(model, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Timeframe: "1d", Watchlist: []string{"BTC", "SOL"}})
	require.NoError(t, err)

	artifact, err := inv.Invoke(context.Background(), New(), input)
	require.NoError(t, err)

	var out Output
	require.NoError(t, flow.Decode(artifact, &out))
	require.Len(t, out.Alerts, 2)
	assert.Equal(t, "2025-03-15", out.Alerts[0].AlertDate, "stale year keeps month and day")
	assert.Equal(t, "2025-12-31", out.Alerts[1].AlertDate, "unparseable date falls back to the reference date")
	assert.Contains(t, model.lastReq.Prompt, `["BTC","SOL"]`)
}

func TestBreakout_TooManyAlertsFailsGeneration(t *testing.T) {
	alert := `{"coin":"X","ticker":"X","triggerPrice":1,"alertDate":"2025-01-01","rationale":"r"}`
	payload := `{"alerts":[` + alert + `,` + alert + `,` + alert + `,` + alert + `,` + alert + `,` + alert + `],"disclaimer":"d"}`
	inv := flow.NewInvoker(&fakeModel{payload: payload}, logger.NewNoOpLogger())

	input, err := flow.Encode(Input{Timeframe: "4h"})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), New(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
}

func TestBreakout_TimeframeRequired(t *testing.T) {
	inv := flow.NewInvoker(&fakeModel{}, logger.NewNoOpLogger())

	_, err := inv.Invoke(context.Background(), New(), map[string]interface{}{})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "timeframe", se.Field)
}
