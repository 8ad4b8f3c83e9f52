// Package api provides the local HTTP control API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"mousefx/internal/animator"
	"mousefx/internal/config"
	"mousefx/internal/motion"
)

// Animator is the part of the animator the API controls
type Animator interface {
	Status() animator.Status
	SetPaused(paused bool)
}

// Server provides HTTP API for remote control
type Server struct {
	configMgr *config.Manager
	anim      Animator
	token     string
	wsMgr     *WSManager

	mu        sync.Mutex
	srv       *http.Server
	connected func() bool
}

// NewServer creates a new API server
func NewServer(configMgr *config.Manager, anim Animator) *Server {
	s := &Server{
		configMgr: configMgr,
		anim:      anim,
		token:     configMgr.Get().General.APIToken,
	}
	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()
	return s
}

// SetConnectionCheck sets the function reporting whether OBS is connected
func (s *Server) SetConnectionCheck(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = fn
}

// Handler returns the routed handler with auth and panic recovery applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/presets/save", s.handlePresetSave)
	mux.HandleFunc("/api/presets/apply", s.handlePresetApply)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)

	return s.originMiddleware(s.authMiddleware(s.recoverMiddleware(mux)))
}

// Start serves the API on localhost:port until Shutdown is called
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Starting API server on %s", addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		log.Printf("Note: mousefx will continue running without the control API.")
		return err
	}

	server := &http.Server{Handler: s.Handler()}
	s.mu.Lock()
	s.srv = server
	s.mu.Unlock()

	// This is blocking
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and disconnects subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsMgr.stop()

	s.mu.Lock()
	server := s.srv
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// BroadcastTransform pushes a written transform to every subscriber
func (s *Server) BroadcastTransform(t motion.Transform) {
	s.wsMgr.BroadcastTransform(t)
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// isLoopbackOrigin reports whether an Origin header names a page served
// from this machine. Requests without an Origin are not from a browser page.
func isLoopbackOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// originMiddleware rejects requests made by pages on other sites
func (s *Server) originMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackOrigin(r.Header.Get("Origin")) {
			log.Printf("API: Rejected request from origin %q", r.Header.Get("Origin"))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isJSON reports whether the request body is declared as JSON
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Browsers cannot set headers on websocket upgrades
		if r.Header.Get("Authorization") != "Bearer "+s.token && r.URL.Query().Get("token") != s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) status() map[string]interface{} {
	cfg := s.configMgr.Get()

	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()

	out := map[string]interface{}{
		"animator":      s.anim.Status(),
		"active_preset": cfg.General.ActivePreset,
		"presets":       s.configMgr.PresetNames(),
	}
	if connected != nil {
		out["obs_connected"] = connected()
	}
	return out
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.status())
}

// handleConfig handles GET (read) and POST (update) for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.configMgr.Get())

	case http.MethodPost:
		if !isJSON(r) {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		newCfg := config.DefaultConfig()
		if err := json.NewDecoder(r.Body).Decode(newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}
		if newCfg.Presets == nil {
			newCfg.Presets = make(map[string]config.Settings)
		}

		log.Printf("API: Receiving configuration update from %s", r.RemoteAddr)

		s.configMgr.Set(newCfg)
		if !s.save(w) {
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePresets handles GET (list) and DELETE ?name= for presets
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]interface{}{
			"active":  s.configMgr.Get().General.ActivePreset,
			"presets": s.configMgr.PresetNames(),
		})

	case http.MethodDelete:
		name := r.URL.Query().Get("name")
		if err := s.configMgr.DeletePreset(name); err != nil {
			presetError(w, err)
			return
		}
		log.Printf("API: Deleted preset '%s'", name)
		if !s.save(w) {
			return
		}
		writeJSON(w, map[string]string{"status": "ok", "preset": name})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePresetSave handles POST /api/presets/save?name=<name>
func (s *Server) handlePresetSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if err := s.configMgr.SavePreset(name); err != nil {
		presetError(w, err)
		return
	}
	if !s.save(w) {
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "preset": name})
}

// handlePresetApply handles POST /api/presets/apply?name=<name>
func (s *Server) handlePresetApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing name parameter", http.StatusBadRequest)
		return
	}

	log.Printf("API: Applying preset '%s' (request from %s)", name, r.RemoteAddr)
	if err := s.configMgr.ApplyPreset(name); err != nil {
		presetError(w, err)
		return
	}
	if !s.save(w) {
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "preset": name})
}

// handlePause handles POST /api/pause?paused=true|false
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	paused, err := strconv.ParseBool(r.URL.Query().Get("paused"))
	if err != nil {
		http.Error(w, "Invalid paused parameter", http.StatusBadRequest)
		return
	}

	s.anim.SetPaused(paused)
	s.wsMgr.BroadcastStatus(s.anim.Status())
	writeJSON(w, map[string]interface{}{"status": "ok", "paused": paused})
}

func (s *Server) save(w http.ResponseWriter) bool {
	if err := s.configMgr.Save(); err != nil {
		log.Printf("API: Failed to save config: %v", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return false
	}
	return true
}

func presetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrPresetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, config.ErrInvalidPresetName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
