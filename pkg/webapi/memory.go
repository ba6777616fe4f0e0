package webapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/wombatlabs/wombat/pkg/memory"
)

func (s *Server) handleMemorySettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, cfg.Memory)
	case http.MethodPost:
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		ms := cfg.Memory
		if err := decodeJSON(r, &ms); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.svc.Memory.Reconfigure(ms); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg.Memory = ms
		if !s.saveSettings(w, cfg) {
			return
		}
		writeJSON(w, http.StatusOK, ms)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleMemoryLongTerm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		entries, err := s.svc.Memory.Store().Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if entries == nil {
			entries = []memory.Entry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"memories": entries})
	case http.MethodPost:
		var body struct {
			Content string   `json:"content"`
			Tags    []string `json:"tags,omitempty"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.Content) == "" {
			writeError(w, http.StatusUnprocessableEntity, "content must not be empty")
			return
		}
		entry, err := s.svc.Memory.Store().Add(r.Context(), body.Content, body.Tags)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, entry)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleMemoryDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/memory/long_term/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	removed, err := s.svc.Memory.Store().Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMemoryStats(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	stats, err := s.svc.Memory.Store().Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
