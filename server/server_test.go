package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorlog/monitor"
	"github.com/mklimuk/sensorlog/orientation"
)

type fakeSource struct {
	mx      sync.Mutex
	snap    monitor.Snapshot
	ready   bool
	updates chan monitor.Snapshot
	unsubs  int
}

func (f *fakeSource) Latest() (monitor.Snapshot, bool) {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.snap, f.ready
}

func (f *fakeSource) Subscribe(buffer int) (<-chan monitor.Snapshot, func()) {
	return f.updates, func() {
		f.mx.Lock()
		defer f.mx.Unlock()
		f.unsubs++
	}
}

func (f *fakeSource) unsubscribed() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.unsubs
}

func snapshot() monitor.Snapshot {
	temp := 77.15
	hPa := 1006.53
	return monitor.Snapshot{
		At:           time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Orientation:  &orientation.Estimate{Pitch: 3.5, Roll: 7.1, Heading: 326.3, CompensatedHeading: 332.6, Compass: "NNW"},
		TemperatureF: &temp,
		PressureHpa:  &hPa,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestEndpoints_NoReadingYet(t *testing.T) {
	srv := New(&fakeSource{})
	for _, path := range []string{"/api/snapshot", "/api/orientation", "/api/environment"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.JSONEq(t, `{"error":"no reading yet"}`, rec.Body.String())
	}
}

func TestEndpoints(t *testing.T) {
	srv := New(&fakeSource{snap: snapshot(), ready: true})

	rec := get(t, srv, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var snap monitor.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, snapshot(), snap)

	rec = get(t, srv, "/api/orientation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pitch":3.5,"roll":7.1,"heading":326.3,"compensatedHeading":332.6,"compass":"NNW"}`, rec.Body.String())

	rec = get(t, srv, "/api/environment")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"at":"2024-05-01T12:00:00Z","temperatureF":77.15,"pressureHpa":1006.53}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/snapshot", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOrientation_Undefined(t *testing.T) {
	snap := snapshot()
	snap.Orientation = nil
	snap.Errors = map[string]string{"orientation": "undefined computation: orientation is undefined"}
	rec := get(t, New(&fakeSource{snap: snap, ready: true}), "/api/orientation")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "orientation is undefined")
}

func TestStream(t *testing.T) {
	source := &fakeSource{snap: snapshot(), ready: true, updates: make(chan monitor.Snapshot, 1)}
	ts := httptest.NewServer(New(source))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/stream", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first monitor.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "NNW", first.Orientation.Compass, "latest snapshot is sent on connect")

	next := snapshot()
	next.Orientation.Compass = "N"
	source.updates <- next
	var second monitor.Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "N", second.Orientation.Compass)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return source.unsubscribed() == 1 }, time.Second, 5*time.Millisecond)
}
