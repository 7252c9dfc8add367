package httpapi

import (
	"net/http"

	"github.com/vireo-stream/hostcore/hostrecord"
)

type computerSummary struct {
	Name            string `json:"name"`
	UUID            string `json:"uuid"`
	ComputerState   string `json:"computerState"`
	PairState       string `json:"pairState"`
	Wakeable        bool   `json:"wakeable"`
	StatusUnknown   bool   `json:"statusUnknown"`
	ServerSupported bool   `json:"serverSupported"`
}

func (s *Server) handleComputers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	uuidFilter := r.URL.Query().Get("computer")
	if uuidFilter != "" && !validUUID(uuidFilter) {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return
	}

	out := make([]computerSummary, 0)
	for _, rec := range s.registry.All() {
		if uuidFilter != "" && rec.UUID() != uuidFilter {
			continue
		}
		out = append(out, computerSummary{
			Name:            rec.Name(),
			UUID:            rec.UUID(),
			ComputerState:   string(rec.State()),
			PairState:       string(rec.PairState()),
			Wakeable:        rec.MAC() != "",
			StatusUnknown:   rec.State() == hostrecord.StateUnknown,
			ServerSupported: rec.IsNvidia(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
