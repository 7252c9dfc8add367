// Package hostrecord implements the value+state object for one remote
// streaming host: persisted and ephemeral attributes,
// a per-record reader/writer lock, server-XML parsing, field-merge update
// semantics, wake-on-LAN, and active-address reachability classification.
package hostrecord

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// DefaultHTTPPort and DefaultHTTPSPort are the well-known GameStream base
// ports used whenever an address carries no explicit port of its own (the
// local-network address from serverinfo, for one) and no HTTPS port has
// been learned yet.
const (
	DefaultHTTPPort  = 47989
	DefaultHTTPSPort = 47984
)

// ComputerState is the overall reachability state of a host.
type ComputerState string

const (
	StateUnknown ComputerState = "CS_UNKNOWN"
	StateOnline  ComputerState = "CS_ONLINE"
	StateOffline ComputerState = "CS_OFFLINE"
)

// PairState is whether this client holds a pinned certificate for a host.
type PairState string

const (
	PairUnknown   PairState = "PS_UNKNOWN"
	PairPaired    PairState = "PS_PAIRED"
	PairNotPaired PairState = "PS_NOT_PAIRED"
)

// IdentityPairMode selects how federated-identity pairing is handled.
type IdentityPairMode string

const (
	IdentityModeUnknown   IdentityPairMode = "UNKNOWN"
	IdentityModeManual    IdentityPairMode = "MANUAL"
	IdentityModeAutomatic IdentityPairMode = "AUTOMATIC"
	IdentityModeDisable   IdentityPairMode = "DISABLE"
)

// Reachability classifies how the active address is being reached.
type Reachability string

const (
	ReachabilityUnknown Reachability = "UNKNOWN"
	ReachabilityLAN     Reachability = "LAN"
	ReachabilityVPN     Reachability = "VPN"
)

// Address is a (host, port) pair. Zero value means "absent" throughout
// this package; Host == "" is the sentinel for "no address here".
type Address struct {
	Host string
	Port int
}

func (a Address) empty() bool { return a.Host == "" }

// DisplayMode is one supported resolution/refresh-rate tuple advertised by
// a host in its serverinfo response.
type DisplayMode struct {
	Width       int
	Height      int
	RefreshRate int
}

// VersionQuad is a dot-separated integer version, e.g. appversion/GfeVersion.
// Only the first three components map onto semver; the fourth (build) is
// kept alongside since the GameStream quad has no native semver slot.
type VersionQuad struct {
	Major, Minor, Patch, Build int
}

// Major7OrAbove reports whether the pairing hash function should be
// SHA-256 (true) rather than SHA-1 (false).
func (v VersionQuad) Major7OrAbove() bool { return v.Major >= 7 }

// Semver normalizes the quad's first three components into a semver.Version
// for comparison/sorting; the fourth (build) component has no native semver
// slot and is dropped here (retained on VersionQuad itself for display).
func (v VersionQuad) Semver() (*semver.Version, error) {
	return semver.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch))
}

// Application is one entry in a host's app list. Hidden, DirectLaunch, and
// LastAppStartTime are client-only: they are never sent by the host and
// must survive server-authoritative app-list refreshes (see mergeApps).
type Application struct {
	ID                 int
	GUID               string
	Name               string
	GamePlatform       string
	HDRSupported       bool
	IsAppCollectorGame bool

	Hidden           bool
	DirectLaunch     bool
	LastAppStartTime int64
	BoxArt           string
}

// Record is one known host. The zero value is not usable; construct via
// New or FromXML. Every exported accessor/mutator takes the record's own
// lock; callers must never read/write fields directly.
type Record struct {
	mu sync.RWMutex

	// Persisted
	uuid        string
	name        string
	customName  bool
	mac         string
	localAddr   Address
	remoteAddr  Address
	ipv6Addr    Address
	manualAddr  Address
	serverCert  string // PEM
	isNvidia    bool
	apps        []Application

	// Ephemeral
	state             ComputerState
	pairState         PairState
	activeAddr        Address
	activeHTTPSPort   int
	currentGameID     int
	appVersion        VersionQuad
	gfeVersion        VersionQuad
	codecBitmask      int
	maxLumaPixelsHEVC int64
	gpuModel          string
	identityPairMode  IdentityPairMode
	razerIdentifier   string
	usesSameExternal  bool
	displayModes      []DisplayMode
	pendingQuit       bool
}

// New constructs a bare record for the given uuid, all other fields zero.
// Used by the add-task path before the first serverinfo merge populates it.
func New(uuid string) *Record {
	return &Record{
		uuid:             uuid,
		state:            StateUnknown,
		pairState:        PairUnknown,
		identityPairMode: IdentityModeUnknown,
	}
}

// UUID returns the record's immutable identifier.
func (r *Record) UUID() string {
	// uuid never changes after construction; reading without the lock is
	// safe, but we take it anyway for consistency with every other
	// accessor and to keep -race happy about the field's word.
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.uuid
}
