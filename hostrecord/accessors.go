package hostrecord

// Accessors. Every read takes the record's RWMutex in read mode.

func (r *Record) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

func (r *Record) CustomName() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.customName
}

func (r *Record) MAC() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mac
}

func (r *Record) State() ComputerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Record) PairState() PairState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pairState
}

func (r *Record) ServerCert() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.serverCert
}

func (r *Record) ActiveAddress() Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeAddr
}

func (r *Record) ActiveHTTPSPort() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeHTTPSPort
}

func (r *Record) CurrentGameID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentGameID
}

func (r *Record) IsNvidia() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isNvidia
}

func (r *Record) AppVersion() VersionQuad {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.appVersion
}

func (r *Record) DisplayModes() []DisplayMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DisplayMode, len(r.displayModes))
	copy(out, r.displayModes)
	return out
}

func (r *Record) PendingQuit() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pendingQuit
}

func (r *Record) IdentityPairMode() IdentityPairMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identityPairMode
}

func (r *Record) RazerIdentifier() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.razerIdentifier
}

func (r *Record) UsesSameExternalIdentity() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usesSameExternal
}

// Apps returns a copy of the visible application list, honoring Hidden.
func (r *Record) Apps(includeHidden bool) []Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Application, 0, len(r.apps))
	for _, a := range r.apps {
		if !includeHidden && a.Hidden {
			continue
		}
		out = append(out, a)
	}
	return out
}

// App looks up one application by id.
func (r *Record) App(id int) (Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.ID == id {
			return a, true
		}
	}
	return Application{}, false
}

// Mutators used directly by callers other than Update (poller/pairing use
// Update; the HTTP API and task manager use these narrow setters).

// SetCustomName marks the record as having a user-chosen display name and
// sets it. Once set, Update never overwrites Name.
func (r *Record) SetCustomName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.customName = true
}

// SetAppHidden toggles the client-only Hidden flag for one app.
func (r *Record) SetAppHidden(appID int, hidden bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.apps {
		if r.apps[i].ID == appID {
			r.apps[i].Hidden = hidden
			return true
		}
	}
	return false
}

// SetAppBoxArt records a resolved box-art path/data-URI for one app.
func (r *Record) SetAppBoxArt(appID int, boxArt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.apps {
		if r.apps[i].ID == appID {
			r.apps[i].BoxArt = boxArt
			return true
		}
	}
	return false
}

// SetServerCert pins the server certificate, called by the pairing engine
// on success, and marks the record paired.
func (r *Record) SetServerCert(pem string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serverCert = pem
	r.pairState = PairPaired
}

// SetManualAddress records an address the user (or an add-task) supplied
// explicitly, distinct from whatever the poller later discovers.
func (r *Record) SetManualAddress(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manualAddr = addr
}

// SetLocalAddress records the host's LAN address, normally sourced from
// serverinfo's LocalIP but also seeded from an mDNS advertisement when
// the response omits it.
func (r *Record) SetLocalAddress(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.localAddr.empty() {
		r.localAddr = addr
	}
}

// SetCurrentGameID updates the ephemeral running-game id (0 = none).
func (r *Record) SetCurrentGameID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentGameID = id
}

// SetPendingQuit marks that a quit-app task has been issued for the
// currently running title, so /stream can refuse to launch over it.
func (r *Record) SetPendingQuit(pending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingQuit = pending
}

// SetIdentityPairMode records how federated-identity pairing should be
// attempted for this host.
func (r *Record) SetIdentityPairMode(mode IdentityPairMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identityPairMode = mode
}

// SetAppLastStartTime stamps when a stream for appID last launched (unix
// seconds). Client-only, preserved across server app-list refreshes.
func (r *Record) SetAppLastStartTime(appID int, ts int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.apps {
		if r.apps[i].ID == appID {
			r.apps[i].LastAppStartTime = ts
			return true
		}
	}
	return false
}

// SetState records the overall reachability state, reporting whether it
// changed. Called directly by the poller (not via Update) since state
// transitions drive the app-list refetch and the ONLINE&PAIRED trigger
// independent of whatever else a serverinfo merge touched.
func (r *Record) SetState(state ComputerState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == state {
		return false
	}
	r.state = state
	return true
}

// SetActiveAddress records which of the record's known addresses answered
// most recently.
func (r *Record) SetActiveAddress(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeAddr = addr
}

// SetRemoteAddress records the host's external/remote address, as derived
// via a STUN lookup when the active address turns out to be a private
// LAN address reachable directly.
func (r *Record) SetRemoteAddress(addr Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remoteAddr = addr
}

// MergeAppList merges a freshly-fetched /applist result into the record's
// existing app list, preserving client-only fields, and reports whether
// anything changed.
func (r *Record) MergeAppList(apps []Application) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	merged, changed := mergeApps(r.apps, apps)
	if changed {
		r.apps = merged
	}
	return changed
}

// AppCount returns the number of known applications, used by the poller's
// "≥10 iterations with an empty app list" refetch trigger.
func (r *Record) AppCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}
