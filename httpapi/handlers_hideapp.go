package httpapi

import (
	"encoding/json"
	"net/http"
)

type hideAppRequest struct {
	Computer string `json:"computer"`
	App      int    `json:"app"`
	Hide     bool   `json:"hide"`
}

func (s *Server) handleHideApp(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	var req hideAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validUUID(req.Computer) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}

	rec, ok := s.registry.Get(req.Computer)
	if !ok {
		writeError(w, http.StatusNotFound, "host not found")
		return
	}
	if !rec.SetAppHidden(req.App, req.Hide) {
		writeError(w, http.StatusNotFound, "app not found")
		return
	}
	s.registry.SaveHost(rec)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
