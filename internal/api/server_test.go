package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"mousefx/internal/animator"
	"mousefx/internal/config"
	"mousefx/internal/motion"
	"mousefx/internal/protocol"
)

type stubAnimator struct {
	mu     sync.Mutex
	paused bool
}

func (a *stubAnimator) Status() animator.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return animator.Status{Running: true, Paused: a.paused, Scene: "Main", Source: "Camera"}
}

func (a *stubAnimator) SetPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	a.mu.Unlock()
}

func newTestServer(t *testing.T, token string) (*Server, *config.Manager, *stubAnimator, *httptest.Server) {
	t.Helper()
	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	if token != "" {
		cfg := mgr.Get()
		cfg.General.APIToken = token
		mgr.Set(cfg)
	}
	anim := &stubAnimator{}
	s := NewServer(mgr, anim)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.wsMgr.stop()
		ts.Close()
	})
	return s, mgr, anim, ts
}

func do(t *testing.T, method, url string, body []byte, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthSkipsAuth(t *testing.T) {
	_, _, _, ts := newTestServer(t, "secret")

	resp := do(t, http.MethodGet, ts.URL+"/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestTokenRequired(t *testing.T) {
	_, _, _, ts := newTestServer(t, "secret")

	resp := do(t, http.MethodGet, ts.URL+"/api/status", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/status", nil, http.Header{"Authorization": {"Bearer secret"}})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/status?token=secret", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with query token, got %d", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	s, _, _, ts := newTestServer(t, "")
	s.SetConnectionCheck(func() bool { return true })

	resp := do(t, http.MethodGet, ts.URL+"/api/status", nil, nil)
	var body struct {
		Animator     animator.Status `json:"animator"`
		OBSConnected bool            `json:"obs_connected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !body.Animator.Running || body.Animator.Scene != "Main" {
		t.Errorf("Expected running animator on Main, got %+v", body.Animator)
	}
	if !body.OBSConnected {
		t.Error("Expected obs_connected true")
	}
}

func TestPresetLifecycle(t *testing.T) {
	_, mgr, _, ts := newTestServer(t, "")

	mgr.UpdateMotion(func(s *config.Settings) { s.Position.RangeX = 321 })

	resp := do(t, http.MethodPost, ts.URL+"/api/presets/save?name=wide", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on save, got %d", resp.StatusCode)
	}

	mgr.UpdateMotion(func(s *config.Settings) { s.Position.RangeX = 1 })

	resp = do(t, http.MethodPost, ts.URL+"/api/presets/apply?name=wide", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on apply, got %d", resp.StatusCode)
	}
	if got := mgr.Motion().Position.RangeX; got != 321 {
		t.Errorf("Expected RangeX 321 after apply, got %v", got)
	}

	resp = do(t, http.MethodGet, ts.URL+"/api/presets", nil, nil)
	var list struct {
		Active  string   `json:"active"`
		Presets []string `json:"presets"`
	}
	json.NewDecoder(resp.Body).Decode(&list)
	if list.Active != "wide" || len(list.Presets) != 1 {
		t.Errorf("Expected active 'wide' and one preset, got %+v", list)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/presets?name=wide", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", resp.StatusCode)
	}
	if len(mgr.PresetNames()) != 0 {
		t.Errorf("Expected no presets, got %v", mgr.PresetNames())
	}
}

func TestPresetErrors(t *testing.T) {
	_, _, _, ts := newTestServer(t, "")

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/presets/apply?name=missing", http.StatusNotFound},
		{http.MethodPost, "/api/presets/apply", http.StatusBadRequest},
		{http.MethodPost, "/api/presets/save?name=%20", http.StatusBadRequest},
		{http.MethodDelete, "/api/presets?name=missing", http.StatusNotFound},
		{http.MethodGet, "/api/presets/save?name=x", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		resp := do(t, tc.method, ts.URL+tc.path, nil, nil)
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.StatusCode)
		}
	}
}

func TestPause(t *testing.T) {
	_, _, anim, ts := newTestServer(t, "")

	resp := do(t, http.MethodPost, ts.URL+"/api/pause?paused=true", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !anim.Status().Paused {
		t.Error("Expected animator to be paused")
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/pause?paused=maybe", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid value, got %d", resp.StatusCode)
	}
}

func TestConfigUpdate(t *testing.T) {
	_, mgr, _, ts := newTestServer(t, "")

	cfg := mgr.Get()
	cfg.Motion.Scene = "Gameplay"
	cfg.Motion.IntervalMs = -5
	data, _ := json.Marshal(cfg)

	jsonHeader := http.Header{"Content-Type": {"application/json; charset=utf-8"}}
	resp := do(t, http.MethodPost, ts.URL+"/api/config", data, jsonHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	got := mgr.Motion()
	if got.Scene != "Gameplay" {
		t.Errorf("Expected scene Gameplay, got %q", got.Scene)
	}
	if got.IntervalMs != 1 {
		t.Errorf("Expected interval normalized to 1, got %d", got.IntervalMs)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/config", []byte("{"), jsonHeader)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid JSON, got %d", resp.StatusCode)
	}
}

func TestConfigUpdateRequiresJSON(t *testing.T) {
	_, mgr, _, ts := newTestServer(t, "")

	cfg := mgr.Get()
	cfg.General.OBSAddress = "elsewhere:4455"
	data, _ := json.Marshal(cfg)

	resp := do(t, http.MethodPost, ts.URL+"/api/config", data, http.Header{"Content-Type": {"text/plain"}})
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415, got %d", resp.StatusCode)
	}
	if got := mgr.Get().General.OBSAddress; got == "elsewhere:4455" {
		t.Errorf("Expected config unchanged, got obs_address %q", got)
	}
}

func TestForeignOriginRejected(t *testing.T) {
	_, mgr, anim, ts := newTestServer(t, "")

	cfg := mgr.Get()
	cfg.General.OBSAddress = "evil.example:4455"
	data, _ := json.Marshal(cfg)
	foreign := http.Header{
		"Origin":       {"https://evil.example"},
		"Content-Type": {"application/json"},
	}

	resp := do(t, http.MethodPost, ts.URL+"/api/config", data, foreign)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}
	if got := mgr.Get().General.OBSAddress; got == "evil.example:4455" {
		t.Errorf("Expected config unchanged, got obs_address %q", got)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/pause?paused=true", nil, http.Header{"Origin": {"null"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for null origin, got %d", resp.StatusCode)
	}
	if anim.Status().Paused {
		t.Error("Expected pause request from foreign origin to be ignored")
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, foreign); err == nil {
		t.Error("Expected websocket dial from foreign origin to fail")
	}

	local := http.Header{"Origin": {"http://localhost:8080"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, local)
	if err != nil {
		t.Fatalf("Expected loopback origin to connect, got %v", err)
	}
	conn.Close()

	resp = do(t, http.MethodGet, ts.URL+"/api/status", nil, http.Header{"Origin": {"http://127.0.0.1:3000"}})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for loopback origin, got %d", resp.StatusCode)
	}
}

func TestWebSocketStreamsTransforms(t *testing.T) {
	s, _, _, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.wsMgr.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	s.BroadcastTransform(motion.Transform{Position: mgl64.Vec2{3, 4}, Rotation: 5, Scale: mgl64.Vec2{1, 2}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    protocol.MessageType      `json:"type"`
		Payload protocol.TransformPayload `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if msg.Type != protocol.TypeTransform {
		t.Errorf("Expected transform message, got %q", msg.Type)
	}
	p := msg.Payload
	if p.PositionX != 3 || p.PositionY != 4 || p.Rotation != 5 || p.ScaleX != 1 || p.ScaleY != 2 {
		t.Errorf("Unexpected payload %+v", p)
	}
}

func TestWebSocketPauseRequest(t *testing.T) {
	_, _, anim, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.Message{Type: protocol.TypePause, Payload: protocol.PausePayload{Paused: true}}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !anim.Status().Paused && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !anim.Status().Paused {
		t.Error("Expected pause request to reach the animator")
	}
}
