package hostrecord

// Snapshot is a pure-data copy of a record's persisted fields only,
// carrying no lock of its own. The
// registry clones records into Snapshot values (never records themselves)
// for its Last-Serialized change-detection map and for hosts.ini
// serialization, so cloning never copies a live mutex.
type Snapshot struct {
	UUID       string
	Name       string
	CustomName bool
	MAC        string
	LocalAddr  Address
	RemoteAddr Address
	IPv6Addr   Address
	ManualAddr Address
	ServerCert string
	IsNvidia   bool
	Apps       []Application
}

// ToSnapshot copies the record's persisted fields into a detached value.
func (r *Record) ToSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]Application, len(r.apps))
	copy(apps, r.apps)
	return Snapshot{
		UUID:       r.uuid,
		Name:       r.name,
		CustomName: r.customName,
		MAC:        r.mac,
		LocalAddr:  r.localAddr,
		RemoteAddr: r.remoteAddr,
		IPv6Addr:   r.ipv6Addr,
		ManualAddr: r.manualAddr,
		ServerCert: r.serverCert,
		IsNvidia:   r.isNvidia,
		Apps:       apps,
	}
}

// FromSnapshot builds a fresh Record from a persisted snapshot, used when
// the registry loads hosts.ini at startup.
func FromSnapshot(s Snapshot) *Record {
	r := New(s.UUID)
	r.name = s.Name
	r.customName = s.CustomName
	r.mac = s.MAC
	r.localAddr = s.LocalAddr
	r.remoteAddr = s.RemoteAddr
	r.ipv6Addr = s.IPv6Addr
	r.manualAddr = s.ManualAddr
	r.serverCert = s.ServerCert
	r.isNvidia = s.IsNvidia
	r.apps = append([]Application(nil), s.Apps...)
	if r.serverCert != "" {
		r.pairState = PairPaired
	}
	return r
}

// IsEqualSerialized compares only the persisted fields of r and other,
// ignoring every ephemeral field. Used by the registry's debounced save
// to decide whether a disk write is actually necessary.
func (r *Record) IsEqualSerialized(other *Record) bool {
	a := r.ToSnapshot()
	b := other.ToSnapshot()
	return snapshotsEqual(a, b)
}

// EqualSnapshot compares r's persisted fields against a previously taken
// Snapshot, which is what the registry's Last-Serialized map actually
// holds (not live records).
func (r *Record) EqualSnapshot(s Snapshot) bool {
	return snapshotsEqual(r.ToSnapshot(), s)
}

func snapshotsEqual(a, b Snapshot) bool {
	if a.UUID != b.UUID || a.Name != b.Name || a.CustomName != b.CustomName ||
		a.MAC != b.MAC || a.LocalAddr != b.LocalAddr || a.RemoteAddr != b.RemoteAddr ||
		a.IPv6Addr != b.IPv6Addr || a.ManualAddr != b.ManualAddr ||
		a.ServerCert != b.ServerCert || a.IsNvidia != b.IsNvidia {
		return false
	}
	if len(a.Apps) != len(b.Apps) {
		return false
	}
	for i := range a.Apps {
		if a.Apps[i] != b.Apps[i] {
			return false
		}
	}
	return true
}
