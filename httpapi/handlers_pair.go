package httpapi

import (
	"net/http"
	"strconv"

	"github.com/vireo-stream/hostcore/tasks"
)

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uuid := r.URL.Query().Get("computer")
	if !validUUID(uuid) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}
	useRazerJWT, _ := strconv.ParseBool(r.URL.Query().Get("useRazerJWT"))

	pin := tasks.GeneratePIN()
	t, err := s.tasks.StartPair(s.registry, s.identity, uuid, pin, useRazerJWT, s.federatedTokens, s.federatedResolver, s.log)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"pin":    pin,
		"taskid": t.ID(),
		"msg":    "",
	})
}

func (s *Server) handlePairState(w http.ResponseWriter, r *http.Request) {
	s.pollTask(w, r, tasks.KindPair)
}

func (s *Server) handleCancelPair(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	taskID := r.URL.Query().Get("taskid")
	if !s.tasks.Cancel(taskID) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// pollTask is the shared GET .../…state?taskid=… handler body: a known
// task always returns a result (completed or not); an unknown task is a
// 404, per the task manager's result-shape contract.
func (s *Server) pollTask(w http.ResponseWriter, r *http.Request, kind tasks.Kind) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	taskID := r.URL.Query().Get("taskid")
	result, ok := s.tasks.Poll(kind, taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed":   result.Completed,
		"succeed":     result.Succeeded,
		"errorstring": result.ErrorString,
	})
}
