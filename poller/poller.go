// Package poller implements the per-host monitor loop:
// one worker per registered host, cycling through its known addresses,
// fetching serverinfo (and occasionally applist), merging into the live
// record, and notifying observers once unlocked.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/transport"
)

const (
	pollChunkSize         = 100 * time.Millisecond
	pollSleep             = 3 * time.Second
	appListEmptyThreshold = 10 // iterations before forcing an applist refetch on an empty list

	attemptsOnStartup        = 1
	attemptsPreviouslyOnline = 2

	serverInfoTimeout = 5 * time.Second
	appListTimeout    = 5 * time.Second

	// retryPace bounds how fast pollOnce can cycle through the retry
	// attempts it makes across a host's known addresses in one iteration,
	// so an unreachable multi-address host doesn't fire probes back to back.
	retryPace = 2 * time.Second
)

// Identity is the narrow slice of identity.Store a poller needs to build
// mTLS transport clients.
type Identity interface {
	CertPEM() []byte
	KeyPEM() []byte
}

// ChangeFunc is invoked once per iteration that changed the record,
// strictly after the record's own lock has been released.
type ChangeFunc func(*hostrecord.Record)

// Poller drives one host's monitor loop. Construct fresh per host; once
// stopped, a Poller is not reused — the registry starts a new one for a
// restarted host even if the old one hasn't finished draining.
type Poller struct {
	record   *hostrecord.Record
	id       Identity
	onChange ChangeFunc
	log      *zap.SugaredLogger

	wasOnline              atomic.Bool
	emptyAppListIterations int

	limiter *rate.Limiter

	stop chan struct{}
	done chan struct{}
}

// New constructs a poller for record. It does not start running until Run
// is called, typically in its own goroutine.
func New(record *hostrecord.Record, id Identity, onChange ChangeFunc, log *zap.SugaredLogger) *Poller {
	return &Poller{
		record:   record,
		id:       id,
		onChange: onChange,
		log:      logger.AddPollSymbol(log).With("uuid", record.UUID()),
		limiter:  rate.NewLimiter(rate.Every(retryPace), 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until Stop is called, polling once per pollSleep interval.
func (p *Poller) Run() {
	defer close(p.done)

	for {
		p.pollOnce()
		if !p.sleepInterruptible(pollSleep) {
			return
		}
	}
}

// Stop requests the poller to exit; it does not block. Use Wait to join.
func (p *Poller) Stop() { close(p.stop) }

// Wait blocks until the worker goroutine has returned from Run.
func (p *Poller) Wait() { <-p.done }

func (p *Poller) sleepInterruptible(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		select {
		case <-p.stop:
			return false
		case <-time.After(pollChunkSize):
		}
	}
	return true
}

func (p *Poller) interrupted() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *Poller) pollOnce() {
	addrs := p.record.UniqueAddresses()
	if len(addrs) == 0 {
		p.transitionOffline()
		return
	}

	attempts := attemptsOnStartup
	if p.wasOnline.Load() {
		attempts = attemptsPreviouslyOnline
	}

	for _, addr := range addrs {
		for attempt := 0; attempt < attempts; attempt++ {
			if p.interrupted() {
				return
			}
			if err := p.limiter.Wait(context.Background()); err != nil {
				return
			}

			fresh, err := p.fetchServerInfo(addr)
			if err != nil {
				p.log.Debugw("serverinfo probe failed", "address", addr, "attempt", attempt, "error", err)
				continue
			}
			if fresh.UUID() != p.record.UUID() {
				p.log.Warnw("address answered for a different host, ignoring", "address", addr, "got_uuid", fresh.UUID())
				continue
			}

			fresh.SetActiveAddress(addr)
			p.applyUpdate(fresh)
			return
		}
	}

	p.transitionOffline()
}

// fetchServerInfo performs one serverinfo GET against addr, preferring
// HTTPS when a cert is pinned and an HTTPS port is already known, falling
// back to HTTP once on a 401 and re-deriving the HTTPS port from that
// HTTP response for next time.
func (p *Poller) fetchServerInfo(addr hostrecord.Address) (*hostrecord.Record, error) {
	httpPort := addr.Port
	if httpPort == 0 {
		httpPort = hostrecord.DefaultHTTPPort
	}

	client, err := transport.New(transport.Target{
		Host:      addr.Host,
		HTTPPort:  httpPort,
		HTTPSPort: p.record.ActiveHTTPSPort(),
	}, p.id.CertPEM(), p.id.KeyPEM())
	if err != nil {
		return nil, err
	}

	useHTTPS := p.record.PairState() == hostrecord.PairPaired && p.record.ActiveHTTPSPort() != 0
	body, err := client.Get(useHTTPS, "/serverinfo", nil, serverInfoTimeout)
	if useHTTPS {
		if protoErr, ok := err.(*transport.ProtocolError); ok && protoErr.Code == transport.StatusUnauthorized {
			// Fall back to HTTP once; the response re-derives the HTTPS
			// port for the next iteration via the normal Update merge.
			body, err = client.Get(false, "/serverinfo", nil, serverInfoTimeout)
		}
	}
	if err != nil {
		return nil, err
	}

	return hostrecord.FromXML(body)
}

// applyUpdate merges fresh into the live record, updates online/app-list
// bookkeeping, and notifies onChange after the record's lock is released.
func (p *Poller) applyUpdate(fresh *hostrecord.Record) {
	wasOnline := p.record.State() == hostrecord.StateOnline
	wasPaired := p.record.PairState() == hostrecord.PairPaired

	fresh.SetState(hostrecord.StateOnline)
	changed := p.record.Update(fresh)

	p.wasOnline.Store(true)

	nowOnline := true
	nowPaired := p.record.PairState() == hostrecord.PairPaired
	justTransitioned := nowOnline && nowPaired && !(wasOnline && wasPaired)

	if p.record.AppCount() == 0 {
		p.emptyAppListIterations++
	} else {
		p.emptyAppListIterations = 0
	}

	if nowPaired && (justTransitioned || p.emptyAppListIterations >= appListEmptyThreshold) {
		if p.fetchAndMergeAppList() {
			changed = true
		}
		p.emptyAppListIterations = 0
	}

	if changed {
		p.onChange(p.record)
	}
}

func (p *Poller) fetchAndMergeAppList() bool {
	addr := p.record.ActiveAddress()
	if addr.Host == "" {
		return false
	}

	httpPort := addr.Port
	if httpPort == 0 {
		httpPort = hostrecord.DefaultHTTPPort
	}

	client, err := transport.New(transport.Target{
		Host:      addr.Host,
		HTTPPort:  httpPort,
		HTTPSPort: p.record.ActiveHTTPSPort(),
	}, p.id.CertPEM(), p.id.KeyPEM())
	if err != nil {
		p.log.Warnw("building transport for applist fetch failed", "error", err)
		return false
	}

	useHTTPS := p.record.ActiveHTTPSPort() != 0
	body, err := client.Get(useHTTPS, "/applist", nil, appListTimeout)
	if err != nil {
		p.log.Debugw("applist fetch failed", "error", err)
		return false
	}

	apps, err := hostrecord.ParseAppList(body)
	if err != nil {
		p.log.Warnw("applist parse failed", "error", err)
		return false
	}

	return p.record.MergeAppList(apps)
}

func (p *Poller) transitionOffline() {
	if p.record.SetState(hostrecord.StateOffline) {
		p.wasOnline.Store(false)
		p.onChange(p.record)
	}
}
