package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/hostwatch/internal/commands"
	"codeberg.org/mutker/hostwatch/internal/eventbus"
	"codeberg.org/mutker/hostwatch/internal/metrics"
	"codeberg.org/mutker/hostwatch/internal/server"
	"codeberg.org/mutker/hostwatch/internal/surface"
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"codeberg.org/mutker/hostwatch/internal/telemetry"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptySource struct{}

func (emptySource) Refresh(context.Context) {}

func (emptySource) CPUUsage() []float64 { return []float64{12, 18} }

func (emptySource) Memory() sysinfo.Memory { return sysinfo.Memory{Used: 2048, Total: 8192} }

func (emptySource) Sensors(context.Context) []sysinfo.SensorReading { return nil }

type fixture struct {
	bus     *eventbus.Bus
	overlay *surface.Overlay
	ts      *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rec, err := metrics.NewService(metrics.DefaultConfig())
	require.NoError(t, err)

	bus := eventbus.New()
	overlay := surface.NewOverlay("main", nil)
	svc := commands.NewService(overlay, commands.WithProbeFactory(sysinfo.SystemProbe))
	srv := server.New("127.0.0.1:0", bus, svc, rec)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		bus.Close()
	})

	return &fixture{bus: bus, overlay: overlay, ts: ts}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return f.bus.Subscribers(telemetry.Topic) == 1
	}, time.Second, 5*time.Millisecond)

	return conn
}

func (f *fixture) invoke(t *testing.T, command, body string) (int, []byte) {
	t.Helper()

	resp, err := http.Post(f.ts.URL+"/invoke/"+command, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, buf.Bytes()
}

func TestEventsStreamSnapshots(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telemetry.NewPublisher(emptySource{}, f.bus).Start(ctx)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(telemetry.Interval*3/2)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"event": "telemetry://metrics",
		"payload": {
			"cpu_usage": 15,
			"memory_used": 2048,
			"memory_total": 8192,
			"temperatures": []
		}
	}`, string(data))
}

func TestClientDisconnectUnsubscribes(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return f.bus.Subscribers(telemetry.Topic) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestInvokeGetSpecs(t *testing.T) {
	f := newFixture(t)

	status, body := f.invoke(t, commands.GetSpecs, "")
	require.Equal(t, http.StatusOK, status)

	var inv map[string]any
	require.NoError(t, json.Unmarshal(body, &inv))
	for _, key := range []string{"host", "os_version", "cpu_brand", "physical_cores", "total_memory"} {
		assert.Contains(t, inv, key)
	}
	assert.NotEmpty(t, inv["host"])
}

func TestInvokeSetClickThrough(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		status, body := f.invoke(t, commands.SetClickThrough, `{"passthrough":true}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "null", string(body))
	}
	assert.True(t, f.overlay.Passthrough())
}

func TestInvokeSetClickThroughDestroyed(t *testing.T) {
	f := newFixture(t)
	f.overlay.Destroy()

	status, body := f.invoke(t, commands.SetClickThrough, `{"passthrough":true}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"window `+"`main`"+` not found or already destroyed"}`, string(body))
}

func TestInvokeErrors(t *testing.T) {
	f := newFixture(t)

	status, _ := f.invoke(t, "open_devtools", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.invoke(t, commands.SetClickThrough, `{"passthrough":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.invoke(t, commands.SetClickThrough, strings.Repeat(" ", 70<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
