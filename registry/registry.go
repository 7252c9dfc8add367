// Package registry implements the thread-safe host registry and its
// debounced hosts.ini persistence: a uuid-keyed map of
// live records, a parallel change-detection map, mDNS-driven discovery
// wiring, and per-host poller lifecycle management.
package registry

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/discovery"
	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/poller"
	"github.com/vireo-stream/hostcore/transport"
)

// defaultDiscoveryInterval is the mDNS re-query cadence when the
// bootstrap config doesn't override it.
const defaultDiscoveryInterval = 60 * time.Second

// discoveryProbeTimeout bounds the serverinfo probe a discovered
// advertisement triggers before it can become a record.
const discoveryProbeTimeout = 5 * time.Second

// Registry owns every known host record, its poller, and the debounced
// save worker that persists them to hosts.ini.
type Registry struct {
	mu             sync.RWMutex
	hosts          map[string]*hostrecord.Record
	lastSerialized map[string]hostrecord.Snapshot

	pollersMu sync.Mutex
	pollers   map[string]*poller.Poller

	path string
	id   poller.Identity
	log  *zap.SugaredLogger

	onChange poller.ChangeFunc

	discoveryInterval time.Duration
	discoveryWorker   *discovery.Worker
	discoveryDone     chan struct{}

	saveMu     sync.Mutex
	saveCond   *sync.Cond
	needsFlush bool
	saveStop   bool
	saveDone   chan struct{}
}

// New loads hosts.ini from path (a missing file means an empty registry)
// and starts the debounced save worker. onChange is invoked whenever a
// poller iteration or pairing event changes a record, strictly after its
// lock is released.
func New(path string, id poller.Identity, onChange poller.ChangeFunc, log *zap.SugaredLogger) (*Registry, error) {
	snapshots, err := LoadHosts(path)
	if err != nil {
		return nil, errors.Wrap(err, "load persisted host registry")
	}

	reg := &Registry{
		hosts:             make(map[string]*hostrecord.Record, len(snapshots)),
		lastSerialized:    make(map[string]hostrecord.Snapshot, len(snapshots)),
		pollers:           make(map[string]*poller.Poller),
		path:              path,
		id:                id,
		onChange:          onChange,
		discoveryInterval: defaultDiscoveryInterval,
		log:               logger.WithSymbol(log, "reg"),
		saveDone:          make(chan struct{}),
	}
	reg.saveCond = sync.NewCond(&reg.saveMu)

	for _, snap := range snapshots {
		rec := hostrecord.FromSnapshot(snap)
		reg.hosts[snap.UUID] = rec
		reg.lastSerialized[snap.UUID] = snap
	}

	go reg.saveWorker()
	return reg, nil
}

// Get returns the record for uuid, if known.
func (reg *Registry) Get(uuid string) (*hostrecord.Record, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rec, ok := reg.hosts[uuid]
	return rec, ok
}

// All returns every known record, ordered by uuid for deterministic
// output (the HTTP API's /computers listing, snapshotting, etc).
func (reg *Registry) All() []*hostrecord.Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*hostrecord.Record, 0, len(reg.hosts))
	for _, rec := range reg.hosts {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID() < out[j].UUID() })
	return out
}

// Add inserts rec under the registry's write lock if its uuid is unseen.
// Reports whether it was actually added.
func (reg *Registry) Add(rec *hostrecord.Record) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.hosts[rec.UUID()]; exists {
		return false
	}
	reg.hosts[rec.UUID()] = rec
	return true
}

// Remove deletes uuid from the registry, stops its poller, and returns the
// removed record (or nil if it wasn't present) so the caller (delete-task)
// can finish freeing its on-disk artwork.
func (reg *Registry) Remove(uuid string) *hostrecord.Record {
	reg.mu.Lock()
	rec, ok := reg.hosts[uuid]
	if ok {
		delete(reg.hosts, uuid)
		delete(reg.lastSerialized, uuid)
	}
	reg.mu.Unlock()

	if !ok {
		return nil
	}

	reg.StopPolling(uuid)
	reg.SaveHosts()
	return rec
}

// StartPolling launches a poller for uuid if one isn't already running.
// A fresh worker starts even if a previous one for the same
// host is still draining after Stop.
func (reg *Registry) StartPolling(uuid string) {
	rec, ok := reg.Get(uuid)
	if !ok {
		return
	}

	reg.pollersMu.Lock()
	defer reg.pollersMu.Unlock()
	if _, running := reg.pollers[uuid]; running {
		return
	}

	p := poller.New(rec, reg.id, reg.notifyChanged, reg.log)
	reg.pollers[uuid] = p
	go p.Run()
}

// StopPolling interrupts uuid's poller, if any, without waiting for it to
// drain; the registry keeps no reference after this call.
func (reg *Registry) StopPolling(uuid string) {
	reg.pollersMu.Lock()
	p, ok := reg.pollers[uuid]
	if ok {
		delete(reg.pollers, uuid)
	}
	reg.pollersMu.Unlock()

	if ok {
		p.Stop()
	}
}

func (reg *Registry) notifyChanged(rec *hostrecord.Record) {
	reg.SaveHost(rec)
	if reg.onChange != nil {
		reg.onChange(rec)
	}
}

// SetDiscoveryInterval overrides the mDNS re-query cadence; call before
// StartDiscovery. Non-positive values are ignored.
func (reg *Registry) SetDiscoveryInterval(d time.Duration) {
	if d > 0 {
		reg.discoveryInterval = d
	}
}

// StartDiscovery begins the mDNS discovery worker, wiring new or changed
// advertisements into Add-or-merge plus StartPolling.
func (reg *Registry) StartDiscovery() {
	if reg.discoveryWorker != nil {
		return
	}
	reg.discoveryWorker = discovery.New(reg.discoveryInterval, reg.handleAdvertisement, reg.log)
	reg.discoveryDone = make(chan struct{})
	go func() {
		defer close(reg.discoveryDone)
		reg.discoveryWorker.Run()
	}()
}

// StopDiscovery halts the discovery worker and waits for it to exit.
func (reg *Registry) StopDiscovery() {
	if reg.discoveryWorker == nil {
		return
	}
	reg.discoveryWorker.Stop()
	<-reg.discoveryDone
	reg.discoveryWorker = nil
}

func (reg *Registry) handleAdvertisement(adv discovery.Advertisement) {
	// An advertisement carries no uuid, so the candidate address has to be
	// probed before it can key a record. The probe runs off the discovery
	// worker's goroutine to keep callback dispatch responsive.
	addr := hostrecord.Address{Host: adv.IPv4.String(), Port: adv.Port}
	go reg.addFromAddress(addr, adv.SrvName)
}

// addFromAddress probes addr's serverinfo endpoint and merges the result
// into the registry under its server-assigned uuid, starting a poller for
// a first-seen host. This is discovery's entry into the same
// merge-or-insert path the add task uses.
func (reg *Registry) addFromAddress(addr hostrecord.Address, srvName string) {
	port := addr.Port
	if port == 0 {
		port = hostrecord.DefaultHTTPPort
	}

	client, err := transport.New(transport.Target{Host: addr.Host, HTTPPort: port}, reg.id.CertPEM(), reg.id.KeyPEM())
	if err != nil {
		reg.log.Warnw("building transport for discovered host failed", "srv", srvName, "error", err)
		return
	}

	body, err := client.Get(false, "/serverinfo", nil, discoveryProbeTimeout)
	if err != nil {
		reg.log.Debugw("discovered host did not answer serverinfo", "srv", srvName, "address", addr.Host, "error", err)
		return
	}

	fresh, err := hostrecord.FromXML(body)
	if err != nil {
		reg.log.Warnw("discovered host sent unparseable serverinfo", "srv", srvName, "error", err)
		return
	}
	fresh.SetLocalAddress(hostrecord.Address{Host: addr.Host, Port: port})

	if existing, ok := reg.Get(fresh.UUID()); ok {
		if existing.Update(fresh) {
			reg.notifyChanged(existing)
		}
		return
	}

	if reg.Add(fresh) {
		reg.SaveHost(fresh)
		reg.StartPolling(fresh.UUID())
		reg.log.Infow("host discovered", "uuid", fresh.UUID(), "address", addr.Host)
	}
}

// SaveHost compares rec against the Last-Serialized map and only triggers
// a full save if its persisted fields actually changed, avoiding storms
// from ephemeral-only updates (state, currentGameID, ...).
func (reg *Registry) SaveHost(rec *hostrecord.Record) {
	reg.mu.RLock()
	last, ok := reg.lastSerialized[rec.UUID()]
	reg.mu.RUnlock()

	if ok && rec.EqualSnapshot(last) {
		return
	}
	reg.SaveHosts()
}

// SaveHosts schedules a debounced flush; concurrent calls during one flush
// window coalesce into a single write.
func (reg *Registry) SaveHosts() {
	reg.saveMu.Lock()
	reg.needsFlush = true
	reg.saveMu.Unlock()
	reg.saveCond.Signal()
}

func (reg *Registry) saveWorker() {
	defer close(reg.saveDone)

	reg.saveMu.Lock()
	for {
		for !reg.needsFlush && !reg.saveStop {
			reg.saveCond.Wait()
		}
		if reg.saveStop && !reg.needsFlush {
			reg.saveMu.Unlock()
			return
		}
		reg.needsFlush = false
		reg.saveMu.Unlock()

		reg.flush()

		reg.saveMu.Lock()
		if reg.saveStop && !reg.needsFlush {
			reg.saveMu.Unlock()
			return
		}
	}
}

func (reg *Registry) flush() {
	reg.mu.Lock()
	snapshots := make([]hostrecord.Snapshot, 0, len(reg.hosts))
	for uuid, rec := range reg.hosts {
		snap := rec.ToSnapshot()
		snapshots = append(snapshots, snap)
		reg.lastSerialized[uuid] = snap
	}
	reg.mu.Unlock()

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].UUID < snapshots[j].UUID })

	if err := SaveHosts(reg.path, snapshots); err != nil {
		reg.log.Errorw("failed to write hosts.ini", "error", err)
	}
}

// Shutdown runs in a fixed order: interrupt (but let one final
// flush complete), join the save worker, stop discovery, interrupt every
// poller, then join them. It does not take the registry write lock at any
// step; records stay in the map.
func (reg *Registry) Shutdown() {
	reg.saveMu.Lock()
	reg.saveStop = true
	reg.saveMu.Unlock()
	reg.saveCond.Signal()
	<-reg.saveDone

	// Discovery stops before the pollers, and no registry lock is held
	// while waiting on either: the discovery callback and a poller's final
	// iteration both call back into Add/SaveHost, so holding the write
	// lock across a join would deadlock against them.
	reg.StopDiscovery()

	reg.pollersMu.Lock()
	active := make([]*poller.Poller, 0, len(reg.pollers))
	for _, p := range reg.pollers {
		p.Stop()
		active = append(active, p)
	}
	reg.pollers = make(map[string]*poller.Poller)
	reg.pollersMu.Unlock()

	for _, p := range active {
		p.Wait()
	}
}
