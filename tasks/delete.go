package tasks

import (
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/boxart"
	"github.com/vireo-stream/hostcore/registry"
)

// StartDelete removes hostUUID from the registry: stops its poller,
// deletes its on-disk artwork, and frees the record.
func (m *Manager) StartDelete(reg *registry.Registry, art *boxart.Fetcher, hostUUID string, log *zap.SugaredLogger) *Task {
	return m.start(KindDelete, hostUUID, func(t *Task) {
		rec := reg.Remove(hostUUID)
		if rec == nil {
			t.complete(false, "host not found")
			return
		}
		if art != nil {
			if err := art.DeleteHost(hostUUID); err != nil {
				log.Warnw("failed to delete box-art cache", "host", hostUUID, "error", err)
			}
		}
		t.complete(true, "")
	})
}
