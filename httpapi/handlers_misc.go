package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vireo-stream/hostcore/hostrecord"
)

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	if s.onExit != nil {
		go s.onExit()
	}
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type razerJWTRequest struct {
	RazerPairToken string `json:"RazerPairToken"`
	RazerUUID      string `json:"RazerUUID"`
}

func (s *Server) handleXRazerJWT(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req razerJWTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.federatedTokens != nil {
		s.federatedTokens.SetTokens(req.RazerPairToken, req.RazerUUID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSomething(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	onlineCount := 0
	firstOnlineName := ""
	for _, rec := range s.registry.All() {
		if rec.State() == hostrecord.StateOnline {
			onlineCount++
			if firstOnlineName == "" {
				firstOnlineName = rec.Name()
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"onlineHostCount": onlineCount,
		"firstOnlineName": firstOnlineName,
		"localDeviceName": s.deviceName,
		"version":         s.versionString,
	})
}

// handleWake broadcasts wake-on-LAN magic packets for an offline host.
// Succeeds only if the record carries a MAC and at least one packet went
// out.
func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
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

	sent := rec.Wake(hostrecord.DefaultHTTPPort, hostrecord.LocalBroadcastAddresses)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}
