package hostrecord

// Update assigns fields from other into r, field by field, only where they
// differ and (for certain fields) only when other's value is non-empty.
// It reports whether anything actually changed. r.uuid must equal
// other.uuid; callers (poller) are expected to have already verified this
// and Update panics otherwise, since a mismatch here means a programming
// error upstream, not a runtime condition to recover from.
func (r *Record) Update(other *Record) bool {
	if r == other {
		return false
	}

	other.mu.RLock()
	o := snapshotFields(other)
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uuid != o.uuid {
		panic("hostrecord: Update called with mismatched uuid")
	}

	changed := false

	// Name: custom-named records never get overwritten.
	if !r.customName && o.name != "" && r.name != o.name {
		r.name = o.name
		changed = true
	}

	if o.mac != "" && r.mac != o.mac {
		r.mac = o.mac
		changed = true
	}
	if !o.localAddr.empty() && r.localAddr != o.localAddr {
		r.localAddr = o.localAddr
		changed = true
	}
	if !o.remoteAddr.empty() && r.remoteAddr != o.remoteAddr {
		r.remoteAddr = o.remoteAddr
		changed = true
	}
	if !o.ipv6Addr.empty() && r.ipv6Addr != o.ipv6Addr {
		r.ipv6Addr = o.ipv6Addr
		changed = true
	}
	if o.serverCert != "" && r.serverCert != o.serverCert {
		r.serverCert = o.serverCert
		changed = true
	}
	if o.isNvidia != r.isNvidia {
		r.isNvidia = o.isNvidia
		changed = true
	}
	if mergedApps, appsChanged := mergeApps(r.apps, o.apps); appsChanged {
		r.apps = mergedApps
		changed = true
	}

	if o.state != "" && r.state != o.state {
		r.state = o.state
		changed = true
	}
	if o.pairState != "" && r.pairState != o.pairState {
		r.pairState = o.pairState
		changed = true
	}
	if !o.activeAddr.empty() && r.activeAddr != o.activeAddr {
		r.activeAddr = o.activeAddr
		changed = true
	}
	if o.activeHTTPSPort != 0 && r.activeHTTPSPort != o.activeHTTPSPort {
		r.activeHTTPSPort = o.activeHTTPSPort
		changed = true
	}
	if r.currentGameID != o.currentGameID {
		r.currentGameID = o.currentGameID
		changed = true
	}
	if o.appVersion != (VersionQuad{}) && r.appVersion != o.appVersion {
		r.appVersion = o.appVersion
		changed = true
	}
	if o.gfeVersion != (VersionQuad{}) && r.gfeVersion != o.gfeVersion {
		r.gfeVersion = o.gfeVersion
		changed = true
	}
	if o.codecBitmask != 0 && r.codecBitmask != o.codecBitmask {
		r.codecBitmask = o.codecBitmask
		changed = true
	}
	if o.maxLumaPixelsHEVC != 0 && r.maxLumaPixelsHEVC != o.maxLumaPixelsHEVC {
		r.maxLumaPixelsHEVC = o.maxLumaPixelsHEVC
		changed = true
	}
	if o.gpuModel != "" && r.gpuModel != o.gpuModel {
		r.gpuModel = o.gpuModel
		changed = true
	}
	if len(o.displayModes) > 0 && !sameDisplayModes(r.displayModes, o.displayModes) {
		r.displayModes = o.displayModes
		changed = true
	}
	if o.identityPairMode != IdentityModeUnknown && r.identityPairMode != o.identityPairMode {
		r.identityPairMode = o.identityPairMode
		changed = true
	}
	if o.razerIdentifier != "" && r.razerIdentifier != o.razerIdentifier {
		r.razerIdentifier = o.razerIdentifier
		changed = true
	}

	return changed
}

// fieldSnapshot is an unlocked copy of every field Update reads from the
// "other" side, taken under other's read lock before r's write lock is
// acquired, so Update never holds two record locks at once.
type fieldSnapshot struct {
	uuid, name, mac, serverCert, gpuModel string
	customName, isNvidia                  bool
	localAddr, remoteAddr, ipv6Addr       Address
	activeAddr                            Address
	activeHTTPSPort, codecBitmask         int
	maxLumaPixelsHEVC                     int64
	currentGameID                         int
	appVersion, gfeVersion                VersionQuad
	state                                 ComputerState
	pairState                             PairState
	identityPairMode                      IdentityPairMode
	razerIdentifier                       string
	displayModes                          []DisplayMode
	apps                                  []Application
}

func snapshotFields(r *Record) fieldSnapshot {
	return fieldSnapshot{
		uuid: r.uuid, name: r.name, mac: r.mac, serverCert: r.serverCert, gpuModel: r.gpuModel,
		customName: r.customName, isNvidia: r.isNvidia,
		localAddr: r.localAddr, remoteAddr: r.remoteAddr, ipv6Addr: r.ipv6Addr,
		activeAddr: r.activeAddr, activeHTTPSPort: r.activeHTTPSPort, codecBitmask: r.codecBitmask,
		maxLumaPixelsHEVC: r.maxLumaPixelsHEVC, currentGameID: r.currentGameID,
		appVersion: r.appVersion, gfeVersion: r.gfeVersion,
		state: r.state, pairState: r.pairState,
		identityPairMode: r.identityPairMode, razerIdentifier: r.razerIdentifier,
		displayModes: r.displayModes, apps: r.apps,
	}
}

func sameDisplayModes(a, b []DisplayMode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mergeApps merges an incoming server-authoritative app list into the
// existing one, preserving client-only fields (Hidden, DirectLaunch,
// LastAppStartTime, BoxArt) keyed by app id. Reports whether the merged
// result differs from cur.
func mergeApps(cur, incoming []Application) ([]Application, bool) {
	if incoming == nil {
		return cur, false
	}

	byID := make(map[int]Application, len(cur))
	for _, a := range cur {
		byID[a.ID] = a
	}

	merged := make([]Application, 0, len(incoming))
	for _, next := range incoming {
		if prev, ok := byID[next.ID]; ok {
			next.Hidden = prev.Hidden
			next.DirectLaunch = prev.DirectLaunch
			next.LastAppStartTime = prev.LastAppStartTime
			next.BoxArt = prev.BoxArt
		}
		merged = append(merged, next)
	}

	if len(merged) == len(cur) {
		same := true
		for i := range merged {
			if merged[i] != cur[i] {
				same = false
				break
			}
		}
		if same {
			return cur, false
		}
	}
	return merged, true
}

// UniqueAddresses returns the deduplicated address list in precedence
// order [active, local, remote, ipv6, manual], skipping empty entries.
// Earlier positions win on duplicates.
func (r *Record) UniqueAddresses() []Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := []Address{r.activeAddr, r.localAddr, r.remoteAddr, r.ipv6Addr, r.manualAddr}
	seen := make(map[Address]bool, len(candidates))
	out := make([]Address, 0, len(candidates))
	for _, a := range candidates {
		if a.empty() || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
