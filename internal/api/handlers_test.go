package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/api"
	"codeberg.org/mutker/kitchenctl/internal/clock"
	"codeberg.org/mutker/kitchenctl/internal/engine"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/telemetry"
	"codeberg.org/mutker/kitchenctl/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()

	collector, err := telemetry.NewCollector(telemetry.Config{Namespace: "api_test"})
	require.NoError(t, err)

	e, err := engine.New(engine.DefaultConfig(),
		engine.WithScheduler(clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		engine.WithRecorder(collector),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Stop() })

	srv := httptest.NewServer(api.NewHandler(e, collector.Handler()).Router())
	t.Cleanup(srv.Close)

	return srv, e
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/timers", map[string]any{"name": "Pasta", "minutes": 8})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created timer.View
	decodeBody(t, resp, &created)
	assert.Equal(t, "Pasta", created.Name)
	assert.Equal(t, "8:00", created.Remaining)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/timers/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	decodeBody(t, resp, &raw)
	assert.Equal(t, "RUNNING", raw["state"])

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/timers/"+created.ID+"/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &raw)
	assert.Equal(t, "IDLE", raw["state"])

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/timers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	decodeBody(t, resp, &list)
	require.Len(t, list, 1)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/timers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/timers", map[string]any{"name": "", "minutes": 3})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "invalid_input", body["code"])

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/timers/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/timers", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/settings/telepathy/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotificationsOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/notifications/test", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var n notify.Notification
	decodeBody(t, resp, &n)
	assert.Equal(t, notify.TestMessage, n.Message)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Notifications []notify.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	decodeBody(t, resp, &list)
	assert.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.Unread)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/notifications/read", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]any
	decodeBody(t, resp, &status)
	assert.Equal(t, "safe", status["status"])
	assert.EqualValues(t, 0, status["unread"])
	assert.Contains(t, status["severities"], "gas")
}

func TestSettingsAndPermissionOverHTTP(t *testing.T) {
	srv, e := newTestServer(t)

	resp := do(t, http.MethodPatch, srv.URL+"/api/v1/settings", map[string]any{"vibration": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s notify.Settings
	decodeBody(t, resp, &s)
	assert.False(t, s.Vibration)
	assert.True(t, s.Push)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/settings/critical_only/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, e.Settings().CriticalOnly)

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/permission", map[string]string{"permission": "denied"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, notify.PermissionDenied, e.Permission())

	resp = do(t, http.MethodPut, srv.URL+"/api/v1/permission", map[string]string{"permission": "perhaps"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, e := newTestServer(t)
	_, err := e.TriggerTestNotification(context.Background())
	require.NoError(t, err)

	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `api_test_notifications_total{kind="info"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodDelete, srv.URL+"/api/v1/status", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// completedEngine reports every timer as completed.
type completedEngine struct {
	*engine.Engine
}

func (completedEngine) ToggleTimer(id string) (timer.View, error) {
	return timer.View{}, errors.New().WithData(errors.ErrInvalidState, "timer is completed")
}

func TestInvalidStateIsConflict(t *testing.T) {
	e, err := engine.New(engine.DefaultConfig(), engine.WithScheduler(clock.NewManual(time.Now())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Stop() })

	srv := httptest.NewServer(api.NewHandler(completedEngine{e}, nil).Router())
	t.Cleanup(srv.Close)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/timers/any/toggle", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
