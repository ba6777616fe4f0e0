package webapi

import "net/http"

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backends": s.svc.Catalog.List()})
}
