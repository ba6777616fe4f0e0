package webapi

import (
	"net/http"
	"os/exec"
	"strings"

	"github.com/wombatlabs/wombat/pkg/channels"
)

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	cfg, ok := s.settings(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": channels.StatusAll(cfg, s.svc.Channels),
	})
}

// handleChannelItem dispatches /api/v1/channels/{name}/{action} where
// action is save, start or stop.
func (s *Server) handleChannelItem(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/channels/")
	name, action, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	desc, known := channels.Lookup(name)
	if !known {
		writeError(w, http.StatusNotFound, "unknown channel "+name)
		return
	}

	switch action {
	case "save":
		s.saveChannel(w, r, desc)
	case "start":
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		if !channels.IsConfigured(desc, cfg) {
			writeError(w, http.StatusBadRequest, "channel "+desc.Name+" is not configured")
			return
		}
		if err := s.svc.Channels.Start(desc.Name, cfg.Channels[desc.Name]); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "stop":
		if err := s.svc.Channels.Stop(desc.Name); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) saveChannel(w http.ResponseWriter, r *http.Request, desc channels.Descriptor) {
	var body struct {
		Config    map[string]string `json:"config"`
		Autostart *bool             `json:"autostart,omitempty"`
		Mode      string            `json:"mode,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg, ok := s.settings(w)
	if !ok {
		return
	}
	if body.Config != nil {
		cfg.Channels[desc.Name] = body.Config
	}
	if body.Autostart != nil {
		cfg.ChannelAutostart[desc.Name] = *body.Autostart
	}
	if desc.Name == "whatsapp" && body.Mode != "" {
		if body.Mode != "business" && body.Mode != "web" {
			writeError(w, http.StatusBadRequest, "invalid whatsapp mode "+body.Mode)
			return
		}
		cfg.WhatsAppMode = body.Mode
	}
	if !s.saveSettings(w, cfg) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"channel": channels.StatusAll(cfg, s.svc.Channels)[desc.Name],
	})
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// handleExtrasCheck reports which channel extras have their runtime
// dependency present on this host.
func (s *Server) handleExtrasCheck(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	out := map[string]bool{}
	for _, d := range channels.Descriptors {
		if d.ExtraDep == "" {
			continue
		}
		_, err := lookPath("wombat-" + d.ExtraDep)
		out[d.ExtraDep] = err == nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"extras": out})
}
