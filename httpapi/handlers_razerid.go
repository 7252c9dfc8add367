package httpapi

import (
	"net/http"

	"github.com/vireo-stream/hostcore/hostrecord"
)

func (s *Server) handleRazerAvailability(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	uuid := r.URL.Query().Get("computer")
	if !validUUID(uuid) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}
	rec, ok := s.registry.Get(uuid)
	if !ok {
		writeError(w, http.StatusNotFound, "host not found")
		return
	}

	message := ""
	switch {
	case rec.IdentityPairMode() == hostrecord.IdentityModeDisable:
		message = "remote_play_client_razer_pair_msg_3"
	case s.federatedTokens == nil || !s.federatedTokens.Available() || s.federatedResolver == nil:
		message = "remote_play_client_razer_pair_msg_4"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"available": message == "", "message": message})
}
