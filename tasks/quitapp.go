package tasks

import (
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/registry"
	"github.com/vireo-stream/hostcore/transport"
)

const (
	quitAppTimeout    = 5 * time.Second
	quitSettleTimeout = 3 * time.Second
	quitSettlePoll    = 100 * time.Millisecond
)

// StartQuitApp requests the currently running title on hostUUID exit, then
// waits up to 3s for the polled record's currentGameID to settle back to
// 0, so a client polling quit state right after success sees consistent
// data.
func (m *Manager) StartQuitApp(reg *registry.Registry, id Identity, hostUUID string, log *zap.SugaredLogger) (*Task, error) {
	rec, ok := reg.Get(hostUUID)
	if !ok {
		return nil, errors.Newf("unknown host %s", hostUUID)
	}

	t := m.start(KindQuitApp, hostUUID, func(t *Task) {
		rec.SetPendingQuit(true)
		defer rec.SetPendingQuit(false)

		addr := rec.ActiveAddress()
		if addr.Host == "" {
			t.complete(false, "host not reachable")
			return
		}
		httpPort := addr.Port
		if httpPort == 0 {
			httpPort = hostrecord.DefaultHTTPPort
		}

		client, err := transport.New(transport.Target{
			Host: addr.Host, HTTPPort: httpPort, HTTPSPort: rec.ActiveHTTPSPort(),
		}, id.CertPEM(), id.KeyPEM())
		if err != nil {
			t.complete(false, err.Error())
			return
		}

		useHTTPS := rec.PairState() == hostrecord.PairPaired && rec.ActiveHTTPSPort() != 0
		_, err = client.Get(useHTTPS, "/cancel", nil, quitAppTimeout)
		if protoErr, isProto := err.(*transport.ProtocolError); isProto {
			switch protoErr.Code {
			case transport.StatusNotSessionOwner:
				// The game was started by a different client; only the
				// session owner may quit it.
				t.complete(false, "remote_play_client_quit_res_failed_1")
				return
			case transport.StatusClientTextToken:
				t.complete(false, "remote_play_host_quit_failed_1")
				return
			}
		}
		if _, isNet := err.(*transport.NetworkError); isNet {
			t.complete(false, "remote_play_client_quit_res_failed_2")
			return
		}
		if err != nil {
			t.complete(false, err.Error())
			return
		}

		waitForGameID(rec, 0, quitSettleTimeout)
		t.complete(true, "")
	})

	return t, nil
}

func waitForGameID(rec *hostrecord.Record, want int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if rec.CurrentGameID() == want {
			return
		}
		time.Sleep(quitSettlePoll)
	}
}
