package webapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wombatlabs/wombat/pkg/config"
)

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"servers": s.svc.MCP.Status()})
	case http.MethodPost:
		var body config.MCPServerConfig
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.svc.MCP.AddServer(body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !s.persistMCP(w) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMCPItem serves DELETE /api/v1/mcp/{name} and
// POST /api/v1/mcp/{name}/toggle.
func (s *Server) handleMCPItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/mcp/")
	name, action, hasAction := strings.Cut(rest, "/")
	if name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case !hasAction && r.Method == http.MethodDelete:
		if !s.svc.MCP.RemoveServer(name) {
			writeError(w, http.StatusNotFound, "server not found")
			return
		}
		if !s.persistMCP(w) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case hasAction && action == "toggle" && r.Method == http.MethodPost:
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Enabled {
			if err := s.svc.MCP.StartServer(r.Context(), name); err != nil {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
		} else {
			s.svc.MCP.StopServer(name)
		}
		if !s.persistMCP(w) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) persistMCP(w http.ResponseWriter) bool {
	cfg, ok := s.settings(w)
	if !ok {
		return false
	}
	cfg.MCPServers = s.svc.MCP.Configs()
	return s.saveSettings(w, cfg)
}

// handleMCPOAuthCallback completes an OAuth handshake started by an MCP
// client. The response is a small HTML page because the user arrives here
// in a browser redirect.
func (s *Server) handleMCPOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "missing state or code")
		return
	}
	if !s.svc.MCP.CompleteOAuth(state, code) {
		writeError(w, http.StatusBadRequest, "unknown or expired state")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authenticated</h1><p>You can close this window.</p></body></html>")
}
