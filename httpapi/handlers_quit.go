package httpapi

import (
	"net/http"

	"github.com/vireo-stream/hostcore/tasks"
)

func (s *Server) handleQuitApp(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uuid := r.URL.Query().Get("computer")
	if !validUUID(uuid) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}
	t, err := s.tasks.StartQuitApp(s.registry, s.identity, uuid, s.log)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.session.NotifyQuitRequested(uuid)
	writeJSON(w, http.StatusAccepted, map[string]string{"taskid": t.ID()})
}

func (s *Server) handleQuitState(w http.ResponseWriter, r *http.Request) {
	s.pollTask(w, r, tasks.KindQuitApp)
}
