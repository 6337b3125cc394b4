package http

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEngine records control calls.
type MockEngine struct {
	mu         sync.Mutex
	status     domain.Status
	values     map[string]domain.Value
	overwrites map[domain.FieldKey][]scenario.Scenario
}

func newMockEngine() *MockEngine {
	return &MockEngine{
		status: domain.StatusRunning,
		values: map[string]domain.Value{
			"V":       domain.Int(12800),
			"H0x1234": domain.String("0FF0"),
		},
		overwrites: make(map[domain.FieldKey][]scenario.Scenario),
	}
}

func (m *MockEngine) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *MockEngine) set(s domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *MockEngine) Pause()  { m.set(domain.StatusPaused) }
func (m *MockEngine) Resume() { m.set(domain.StatusRunning) }
func (m *MockEngine) Stop()   { m.set(domain.StatusStopping) }

func (m *MockEngine) Values() map[string]domain.Value { return m.values }

func (m *MockEngine) Lookup(name string) (domain.FieldKey, bool) {
	switch name {
	case "V", "I":
		return domain.TextKey(name), true
	case "0x1234":
		return domain.HexKey(0x1234), true
	}
	return domain.FieldKey{}, false
}

func (m *MockEngine) Overwrite(key domain.FieldKey, queue []scenario.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overwrites[key] = queue
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := NewHandler(newMockEngine(), WithInfo(map[string]string{"run_id": "abc"}))

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"app":"vemulator-http","run_id":"abc"}`, w.Body.String())
}

func TestControl(t *testing.T) {
	eng := newMockEngine()
	h := NewHandler(eng)

	w := do(t, h, "POST", "/pause", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"paused"}`, w.Body.String())

	w = do(t, h, "GET", "/status", "")
	assert.JSONEq(t, `{"status":"paused"}`, w.Body.String())

	w = do(t, h, "POST", "/resume", "")
	assert.JSONEq(t, `{"status":"running"}`, w.Body.String())

	w = do(t, h, "POST", "/stop", "")
	assert.JSONEq(t, `{"status":"stopping"}`, w.Body.String())

	w = do(t, h, "GET", "/pause", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestFields(t *testing.T) {
	h := NewHandler(newMockEngine())

	w := do(t, h, "GET", "/fields", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"V":12800,"H0x1234":"0FF0"}`, w.Body.String())

	w = do(t, h, "GET", "/fields/0x1234", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"0x1234","value":"0FF0"}`, w.Body.String())

	w = do(t, h, "GET", "/fields/I", "")
	assert.JSONEq(t, `{"key":"I","value":null}`, w.Body.String())

	w = do(t, h, "GET", "/fields/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutField(t *testing.T) {
	eng := newMockEngine()
	h := NewHandler(eng, WithBuilder(scenario.NewBuilder(1)))

	w := do(t, h, "PUT", "/fields/V", `{"values":[{"type":"IntFixed","value":7,"amount":2}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"key":"V","scenarios":1}`, w.Body.String())

	queue := eng.overwrites[domain.TextKey("V")]
	require.Len(t, queue, 1)
	assert.Equal(t, scenario.KindIntFixed, queue[0].Kind())

	w = do(t, h, "PUT", "/fields/V", "values:\n  - type: StringFixed\n    value: ON\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, scenario.KindStringFixed, eng.overwrites[domain.TextKey("V")][0].Kind())
}

func TestPutField_Errors(t *testing.T) {
	eng := newMockEngine()

	w := do(t, NewHandler(eng), "PUT", "/fields/V", `{"values":[]}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	h := NewHandler(eng, WithBuilder(scenario.NewBuilder(1)))

	w = do(t, h, "PUT", "/fields/nope", `{"values":[{"type":"IntFixed","value":1}]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "PUT", "/fields/V", `{"values":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "PUT", "/fields/V", `{"values":[{"type":"Nope"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Nope")

	w = do(t, h, "PUT", "/fields/V", `{"values": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, eng.overwrites)
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("vemulator_frames_total 1\n"))
	})

	w := do(t, NewHandler(newMockEngine()), "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, NewHandler(newMockEngine(), WithMetrics(metrics)), "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vemulator_frames_total")
}

func TestSubscribeEvents(t *testing.T) {
	b := bus.New()
	srv := httptest.NewServer(NewHandler(newMockEngine(), WithBus(b)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events?watch=field")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l, ok := <-lines:
			require.True(t, ok, "stream closed")
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.Equal(t, "event: ping", next())
	assert.Equal(t, "data: connected", next())
	assert.Equal(t, "", next())

	// The hex event is filtered out by watch=field.
	b.Publish(bus.Event{Topic: bus.TopicHexUpdate, Key: domain.HexKey(0x1234), Hex: "0FF0"})
	b.Publish(bus.Event{Topic: bus.TopicFieldUpdate, Key: domain.TextKey("V"), Value: domain.Int(12800)})

	assert.Equal(t, "event: field.update", next())
	data := strings.TrimPrefix(next(), "data: ")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "V", got["key"])
	assert.Equal(t, float64(12800), got["value"])
}

func TestSubscribeEvents_Errors(t *testing.T) {
	w := do(t, NewHandler(newMockEngine()), "GET", "/events", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = do(t, NewHandler(newMockEngine(), WithBus(bus.New())), "GET", "/events?watch=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
