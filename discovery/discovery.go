// Package discovery implements the mDNS-driven host discovery worker:
// it periodically queries a fixed GameStream service
// type and emits an Advertisement callback for every new or changed
// resolved host, using a cache keyed by mDNS service name so repeat
// queries don't re-fire unchanged entries.
package discovery

import (
	"net"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vireo-stream/hostcore/logger"
)

// ServiceType is the fixed mDNS service name GameStream/Sunshine hosts
// advertise under.
const ServiceType = "_nvstream._tcp"

const (
	queryTimeout  = 3 * time.Second
	pollChunkSize = 100 * time.Millisecond
)

// Advertisement is one resolved host, ready to feed into the registry's
// add path.
type Advertisement struct {
	IPv4    net.IP
	IPv6    net.IP // nil if the host didn't advertise one
	Port    int
	PTR     string
	SrvName string
}

// Callback is invoked once per new advertisement or per address change on
// an already-seen srvName; removals never re-fire it.
type Callback func(Advertisement)

// Worker runs the periodic mDNS query loop.
type Worker struct {
	interval time.Duration
	callback Callback
	log      *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]Advertisement // keyed by srvName

	limiter *rate.Limiter
	stop    chan struct{}
	done    chan struct{}
}

// New constructs a discovery worker that re-queries every interval.
func New(interval time.Duration, callback Callback, log *zap.SugaredLogger) *Worker {
	return &Worker{
		interval: interval,
		callback: callback,
		log:      logger.AddDiscoverySymbol(log),
		cache:    make(map[string]Advertisement),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, querying at most once per interval (paced by the rate
// limiter, not just a timer, so a burst of Stop/restart cycles can't
// flood the network) until Stop is called. Interruption is checked in
// pollChunkSize (100ms) increments so Stop takes effect promptly.
func (w *Worker) Run() {
	defer close(w.done)

	for {
		if !w.waitInterruptible() {
			return
		}
		w.queryOnce()
	}
}

// waitInterruptible blocks until the limiter admits the next query,
// polling for Stop every pollChunkSize rather than blocking on the
// reservation in one uninterruptible call.
func (w *Worker) waitInterruptible() bool {
	r := w.limiter.Reserve()
	if !r.OK() {
		return false
	}
	deadline := time.Now().Add(r.Delay())
	for time.Now().Before(deadline) {
		select {
		case <-w.stop:
			r.Cancel()
			return false
		case <-time.After(pollChunkSize):
		}
	}
	return true
}

func (w *Worker) queryOnce() {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			w.handleEntry(entry)
		}
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service: ServiceType,
		Domain:  "local",
		Timeout: queryTimeout,
		Entries: entries,
	})
	close(entries)
	<-done

	if err != nil {
		w.log.Warnw("mDNS query failed", "error", err)
	}
}

func (w *Worker) handleEntry(entry *mdns.ServiceEntry) {
	if entry.AddrV4 == nil {
		return
	}

	adv := Advertisement{
		IPv4:    entry.AddrV4,
		IPv6:    entry.AddrV6,
		Port:    entry.Port,
		PTR:     entry.Name,
		SrvName: entry.Name,
	}

	w.mu.Lock()
	prev, existed := w.cache[adv.SrvName]
	changed := !existed || !advertisementsEqual(prev, adv)
	w.cache[adv.SrvName] = adv
	w.mu.Unlock()

	if changed {
		w.callback(adv)
	}
}

func advertisementsEqual(a, b Advertisement) bool {
	return a.IPv4.Equal(b.IPv4) && a.IPv6.Equal(b.IPv6) && a.Port == b.Port && a.PTR == b.PTR
}

// Stop halts the worker and waits for Run to return: within pollChunkSize
// while Run is waiting between queries, or only once an in-flight mDNS
// query's queryTimeout elapses, since the query itself is not interrupted.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}
