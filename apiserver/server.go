package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/lookbusy1344/sam3x-emulator/mcu"
)

// Server is the HTTP+WebSocket front end onto a SessionManager,
// grounded on teacher api/server.go's ServeMux-plus-CORS-middleware
// shape.
type Server struct {
	sessions    *SessionManager
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	port        int
}

// NewServer wires routes onto a fresh SessionManager/Broadcaster pair.
func NewServer(port int) *Server {
	broadcaster := NewBroadcaster()
	s := &Server{
		sessions:    NewSessionManager(broadcaster),
		broadcaster: broadcaster,
		mux:         http.NewServeMux(),
		port:        port,
	}
	s.registerRoutes()
	return s
}

// Handler returns the CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/v1/session", s.handleSession)
	s.mux.HandleFunc("/api/v1/session/", s.handleSessionRoute)
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("API server starting on http://127.0.0.1:%d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown stops every session's loop, closes the broadcaster, and
// gracefully shuts the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, id := range s.sessions.ListSessions() {
		if session, err := s.sessions.GetSession(id); err == nil {
			session.Stop()
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "file://") {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		session, err := s.sessions.CreateSession()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"sessionId": session.ID})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": s.sessions.ListSessions()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/session/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "Session ID required")
		return
	}
	sessionID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSessionStatus(w, r, sessionID)
		case http.MethodDelete:
			s.handleDestroySession(w, r, sessionID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "run":
		s.handleRun(w, r, sessionID)
	case "stop":
		s.handleStop(w, r, sessionID)
	case "serial":
		s.handleSerial(w, r, sessionID)
	case "display":
		s.handleGetDisplay(w, r, sessionID)
	case "pio":
		s.handleGetPIO(w, r, sessionID)
	case "checkpoint":
		s.handleCheckpoint(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown action: %s", parts[1]))
	}
}

func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": session.ID,
		"createdAt": session.CreatedAt.Format(time.RFC3339),
		"running":   session.Running(),
		"pc":        session.Engine.CPU.PC,
	})
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.sessions.DestroySession(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	session.Start(s.broadcaster)
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	session.Stop()
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": false})
}

// serialRequest is the body of POST .../serial: a command string fed to
// the boot monitor through the session's BootHelper.
type serialRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleSerial(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req serialRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	alive := session.Boot.Write(req.Command)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":  alive,
		"output": session.Boot.Read(),
	})
}

func (s *Server) handleGetDisplay(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"frame": session.Display.Render()})
}

func (s *Server) handleGetPIO(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	snap := session.Engine.PIO.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{"banks": snap.Banks})
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	switch r.Method {
	case http.MethodGet:
		cp := session.Engine.Save()
		data, err := cp.Marshal()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case http.MethodPost:
		data, err := io.ReadAll(io.LimitReader(r.Body, 64*1024*1024))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read checkpoint body")
			return
		}
		cp, err := mcu.UnmarshalCheckpoint(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := session.Engine.Restore(cp); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"restored": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
		"code":    status,
	})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1024*1024))
	return decoder.Decode(v)
}
