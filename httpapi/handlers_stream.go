package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vireo-stream/hostcore/hostrecord"
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uuid := r.URL.Query().Get("computer")
	if !validUUID(uuid) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}
	appID, err := strconv.Atoi(r.URL.Query().Get("app"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid app id")
		return
	}

	rec, ok := s.registry.Get(uuid)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_2"})
		return
	}
	if rec.State() != hostrecord.StateOnline {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_3"})
		return
	}
	if rec.PairState() != hostrecord.PairPaired {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_4"})
		return
	}
	if _, ok := rec.App(appID); !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_5"})
		return
	}
	if rec.PendingQuit() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_7"})
		return
	}
	if !s.session.TryAcquire(uuid, appID) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": false, "errorstring": "remote_play_client_stream_failed_1"})
		return
	}

	rec.SetCurrentGameID(appID)
	rec.SetAppLastStartTime(appID, time.Now().Unix())
	s.registry.SaveHost(rec)

	writeJSON(w, http.StatusOK, map[string]interface{}{"succeed": true, "errorstring": ""})
}

func (s *Server) handleStreamState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	result := s.session.PollResult()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed":   result.Completed,
		"succeed":     result.Succeeded,
		"errorstring": result.ErrorString,
	})
}
