// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"coincoach-backend/internal/common/config"
	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/flow"
	"coincoach-backend/internal/flows"
	"coincoach-backend/internal/models"
	"coincoach-backend/internal/notify"
)

type fakeSignals struct {
	pushed    []string
	pushErr   error
	recent    []models.Signal
	recentErr error
	searched  string
}

func (f *fakeSignals) Push(ctx context.Context, strategy string) (models.Signal, error) {
	if f.pushErr != nil {
		return models.Signal{}, f.pushErr
	}
	f.pushed = append(f.pushed, strategy)
	return models.Signal{ID: "id-1", Strategy: strategy, CreatedAt: "2025-06-01T00:00:00Z"}, nil
}

func (f *fakeSignals) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	return f.recent, f.recentErr
}

func (f *fakeSignals) Search(ctx context.Context, query string, limit int) ([]models.Signal, error) {
	f.searched = query
	return f.recent, f.recentErr
}

type fakeNotifier struct {
	fanouts []models.Signal
	result  notify.FanoutResult
}

func (f *fakeNotifier) Fanout(ctx context.Context, signal models.Signal, devices []models.Device) notify.FanoutResult {
	f.fanouts = append(f.fanouts, signal)
	return f.result
}

type fakeDevices struct {
	registered   []models.Device
	unregistered []string
	listErr      error
}

func (f *fakeDevices) Register(ctx context.Context, token, platform string) (models.Device, error) {
	device := models.Device{Token: token, Platform: platform, RegisteredAt: "2025-06-01T00:00:00Z"}
	f.registered = append(f.registered, device)
	return device, nil
}

func (f *fakeDevices) Unregister(ctx context.Context, token string) error {
	f.unregistered = append(f.unregistered, token)
	return nil
}

func (f *fakeDevices) Devices(ctx context.Context) ([]models.Device, error) {
	return f.registered, f.listErr
}

type fakeRunner struct {
	artifact map[string]interface{}
	err      error
	invoked  string
}

func (f *fakeRunner) Invoke(ctx context.Context, c *flow.Contract, input map[string]interface{}) (map[string]interface{}, error) {
	f.invoked = c.Name
	return f.artifact, f.err
}

type testDeps struct {
	signals  *fakeSignals
	notifier *fakeNotifier
	devices  *fakeDevices
	runner   *fakeRunner
	emailer  *fakeEmailer
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *testDeps) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "coincoach"
	cfg.App.Version = "test"
	cfg.Server.CORSAllowAll = true
	cfg.Notifications.Push.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}

	deps := &testDeps{
		signals:  &fakeSignals{},
		notifier: &fakeNotifier{},
		devices:  &fakeDevices{},
		runner:   &fakeRunner{},
	}

	tool := genai.Tool{Name: "get_coin_price", Call: func(ctx context.Context, args string) (string, error) { return "{}", nil }}
	srv := New(cfg, logger.NewNoOpLogger(), deps.signals, deps.notifier, deps.devices, deps.runner, flows.BuildRegistry(tool))
	return srv, deps
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPushSignal_Success(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.devices.registered = []models.Device{{Token: "arn:1"}}

	rec := doJSON(t, srv, http.MethodPost, "/api/push-signal", map[string]string{"signal": "BUY BTC"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pushed", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "BUY BTC", gjson.Get(rec.Body.String(), "signal").String())
	assert.Equal(t, []string{"BUY BTC"}, deps.signals.pushed)
	require.Len(t, deps.notifier.fanouts, 1)
}

func TestPushSignal_MissingSignal(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"empty signal", map[string]string{"signal": ""}},
		{"wrong field", map[string]string{"message": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, deps := newTestServer(t, nil)

			rec := doJSON(t, srv, http.MethodPost, "/api/push-signal", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Signal not provided", gjson.Get(rec.Body.String(), "error").String())
			assert.Empty(t, deps.signals.pushed, "nothing may be persisted")
		})
	}
}

func TestPushSignal_PersistFailure(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.signals.pushErr = apperrors.NewSignalPersistFailedError(assert.AnError)

	rec := doJSON(t, srv, http.MethodPost, "/api/push-signal", map[string]string{"signal": "BUY BTC"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to push signal", gjson.Get(rec.Body.String(), "error").String())
	assert.Empty(t, deps.notifier.fanouts, "no fan-out without a persisted signal")
}

func TestPushSignal_FanoutFailureStillSucceeds(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.devices.listErr = assert.AnError

	rec := doJSON(t, srv, http.MethodPost, "/api/push-signal", map[string]string{"signal": "BUY BTC"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"BUY BTC"}, deps.signals.pushed)
}

func TestInvokeFlow_Success(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.runner.artifact = map[string]interface{}{"reply": "hello", "disclaimer": "d"}

	rec := doJSON(t, srv, http.MethodPost, "/api/flows/coachchat", map[string]string{"message": "hi"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coachchat", deps.runner.invoked)
	assert.Equal(t, "hello", gjson.Get(rec.Body.String(), "reply").String())
}

func TestInvokeFlow_UnknownFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/flows/nope", map[string]string{})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "FLOW_NOT_FOUND", gjson.Get(rec.Body.String(), "code").String())
}

func TestInvokeFlow_DisabledFlowIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Flows = map[string]config.FlowConfig{
			"memeflip": {Enabled: false},
		}
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/flows/memeflip", map[string]string{})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvokeFlow_ValidationErrorIs400(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.runner.err = apperrors.NewValidationError("budget", "required field missing")

	rec := doJSON(t, srv, http.MethodPost, "/api/flows/coinpicks", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "budget", gjson.Get(rec.Body.String(), "field").String())
}

func TestInvokeFlow_GenerationErrorIs502(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.runner.err = apperrors.NewGenerationError("model returned no value", nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/flows/coinpicks", map[string]interface{}{"budget": 100})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "GENERATION_FAILED", gjson.Get(rec.Body.String(), "code").String())
}

func TestRecentSignals(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.signals.recent = []models.Signal{{ID: "id-1", Strategy: "BUY BTC"}}

	rec := doJSON(t, srv, http.MethodGet, "/api/signals?limit=5", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "signals.#").Int())
}

func TestSearchSignals_RequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/signals/search", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchSignals(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	deps.signals.recent = []models.Signal{{ID: "id-1", Strategy: "breakout on SOL"}}

	rec := doJSON(t, srv, http.MethodGet, "/api/signals/search?q=breakout", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "breakout", deps.signals.searched)
}

func TestDeviceLifecycle(t *testing.T) {
	srv, deps := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/devices", map[string]string{"token": "arn:1", "platform": "ios"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, deps.devices.registered, 1)

	rec = doJSON(t, srv, http.MethodDelete, "/api/devices/arn:1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"arn:1"}, deps.devices.unregistered)
}

func TestRegisterDevice_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/devices", map[string]string{"platform": "ios"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFlows(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/flows", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), gjson.Get(rec.Body.String(), "flows.#").Int())
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}
