package webapi

import (
	"net/http"
	"strings"

	"github.com/wombatlabs/wombat/pkg/skills"
)

func (s *Server) handleSkillsList(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	list := s.svc.Skills.Invocable()
	if list == nil {
		list = []skills.Skill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": list})
}

func (s *Server) handleSkillsSearch(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	results := s.svc.Skills.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []skills.Skill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": results})
}

func (s *Server) handleSkillsInstall(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := skills.ValidateInstallSource(body.Source); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.svc.Installer == nil {
		writeError(w, http.StatusNotImplemented, "skill install is not enabled")
		return
	}
	if err := s.svc.Installer(r.Context(), strings.TrimSpace(body.Source)); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.svc.Skills.Reload()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSkillsReload(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	found := s.svc.Skills.Reload()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(found)})
}

// handleSkillItem serves DELETE /api/v1/skills/{name}.
func (s *Server) handleSkillItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/skills/")
	if err := skills.ValidateSkillName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Skills.Remove(name); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
