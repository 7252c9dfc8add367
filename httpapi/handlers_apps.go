package httpapi

import (
	"fmt"
	"net/http"

	"github.com/vireo-stream/hostcore/boxart"
	"github.com/vireo-stream/hostcore/hostrecord"
)

type appSummary struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	GamePlatform       string `json:"gamePlatform"`
	HDRSupported       bool   `json:"hdrSupported"`
	IsAppCollectorGame bool   `json:"isAppCollectorGame"`
	DirectLaunch       bool   `json:"directLaunch"`
	BoxArt             string `json:"boxArt"`
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
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

	streaming := s.session.Busy()
	ready := (rec.State() == hostrecord.StateOnline && rec.PairState() == hostrecord.PairPaired) || streaming
	if !ready {
		writeError(w, http.StatusConflict, "host not online and paired")
		return
	}

	apps := rec.Apps(false)
	out := make([]appSummary, 0, len(apps))
	for _, a := range apps {
		s.maybeFetchBoxArt(uuid, rec, a)
		out = append(out, appSummary{
			ID:                 a.ID,
			Name:               a.Name,
			GamePlatform:       a.GamePlatform,
			HDRSupported:       a.HDRSupported,
			IsAppCollectorGame: a.IsAppCollectorGame,
			DirectLaunch:       a.DirectLaunch,
			BoxArt:             a.BoxArt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) maybeFetchBoxArt(hostUUID string, rec *hostrecord.Record, a hostrecord.Application) {
	if a.BoxArt != "" || s.boxart == nil || s.boxart.Exists(hostUUID, a.ID) {
		return
	}
	addr := rec.ActiveAddress()
	if addr.Host == "" {
		return
	}
	port := addr.Port
	if port == 0 {
		port = hostrecord.DefaultHTTPPort
	}

	appID := a.ID
	s.boxart.Enqueue(boxart.Request{
		HostUUID: hostUUID,
		AppID:    appID,
		URL:      fmt.Sprintf("http://%s:%d/appasset?appid=%d&AssetType=2&AssetIdx=0", addr.Host, port, appID),
	}, func(path string) {
		if path != "" {
			rec.SetAppBoxArt(appID, path)
		}
	})
}
