package tasks

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/registry"
	"github.com/vireo-stream/hostcore/transport"
)

const (
	addServerInfoTimeout = 5 * time.Second
	stunServer           = "stun.l.google.com:19302"
)

// AddIdentity is the slice of identity.Store the add task needs for its
// HTTP/HTTPS probes.
type AddIdentity interface {
	CertPEM() []byte
	KeyPEM() []byte
}

// StartAdd begins adding ip as a new (or re-merged) host: an initial HTTP
// serverinfo probe, an optional HTTPS re-probe when an already-pinned
// cert's uuid matches the response, merge-or-insert into the registry,
// start polling if pollingActive, and — when the added address is
// RFC 1918 and the reachability probe confirms LAN — a STUN lookup to
// populate the remote address.
func (m *Manager) StartAdd(reg *registry.Registry, id AddIdentity, ip string, pollingActive bool, log *zap.SugaredLogger) (*Task, error) {
	if net.ParseIP(ip) == nil {
		return nil, errors.Newf("invalid IP address %q", ip)
	}

	t := m.start(KindAdd, "", func(t *Task) {
		rec, err := probeAndMerge(reg, id, ip, log)
		if err != nil {
			t.complete(false, err.Error())
			return
		}

		if pollingActive {
			reg.StartPolling(rec.UUID())
		}

		if isRFC1918(ip) && rec.GetActiveAddressReachability() == hostrecord.ReachabilityLAN {
			if remote, stunErr := stunLookupPublicAddress(stunServer); stunErr == nil {
				rec.SetRemoteAddress(hostrecord.Address{Host: remote, Port: rec.ActiveAddress().Port})
				reg.SaveHost(rec)
			} else {
				log.Debugw("STUN lookup for add-task remote address failed", "error", stunErr)
			}
		}

		t.complete(true, "")
	})

	return t, nil
}

func probeAndMerge(reg *registry.Registry, id AddIdentity, ip string, log *zap.SugaredLogger) (*hostrecord.Record, error) {
	client, err := transport.New(transport.Target{Host: ip, HTTPPort: hostrecord.DefaultHTTPPort}, id.CertPEM(), id.KeyPEM())
	if err != nil {
		return nil, err
	}

	body, err := client.Get(false, "/serverinfo", nil, addServerInfoTimeout)
	if err != nil {
		// Deliberately no retry on a 503-class failure: the probe's
		// result surfaces immediately as the task outcome.
		return nil, errors.Wrap(err, "initial serverinfo probe")
	}

	fresh, err := hostrecord.FromXML(body)
	if err != nil {
		return nil, errors.Wrap(err, "parse serverinfo")
	}
	fresh.SetManualAddress(hostrecord.Address{Host: ip, Port: hostrecord.DefaultHTTPPort})

	existing, ok := reg.Get(fresh.UUID())
	if !ok {
		reg.Add(fresh)
		reg.SaveHost(fresh)
		return fresh, nil
	}

	// Re-probe over HTTPS when the existing record is already paired,
	// letting Update pick up whatever HTTPS-only fields serverinfo carries
	// this time around.
	if existing.PairState() == hostrecord.PairPaired && existing.ActiveHTTPSPort() != 0 {
		client.SetHTTPSPort(existing.ActiveHTTPSPort())
		if httpsBody, httpsErr := client.Get(true, "/serverinfo", nil, addServerInfoTimeout); httpsErr == nil {
			if httpsFresh, parseErr := hostrecord.FromXML(httpsBody); parseErr == nil {
				httpsFresh.SetManualAddress(hostrecord.Address{Host: ip, Port: hostrecord.DefaultHTTPPort})
				fresh = httpsFresh
			}
		} else {
			log.Debugw("HTTPS re-probe during add-task failed, keeping HTTP result", "error", httpsErr)
		}
	}

	existing.Update(fresh)
	reg.SaveHost(existing)
	return existing, nil
}

func isRFC1918(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return false
	}
	for _, cidr := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil && block.Contains(parsed) {
			return true
		}
	}
	return false
}
