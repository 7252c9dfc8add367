package httpapi

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/vireo-stream/hostcore/tasks"
)

type addComputerRequest struct {
	IP string `json:"ip"`
}

func (s *Server) handleAddComputer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req addComputerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if net.ParseIP(req.IP) == nil {
		writeError(w, http.StatusBadRequest, "invalid ip address")
		return
	}

	t, err := s.tasks.StartAdd(s.registry, s.identity, req.IP, s.pollingActive, s.log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"taskid": t.ID()})
}

func (s *Server) handleAddState(w http.ResponseWriter, r *http.Request) {
	s.pollTask(w, r, tasks.KindAdd)
}

func (s *Server) handleDeleteComputer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}
	uuid := r.URL.Query().Get("computer")
	if !validUUID(uuid) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}
	t := s.tasks.StartDelete(s.registry, s.boxart, uuid, s.log)
	writeJSON(w, http.StatusAccepted, map[string]string{"taskid": t.ID()})
}

func (s *Server) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	s.pollTask(w, r, tasks.KindDelete)
}
