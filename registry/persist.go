package registry

import (
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
)

// crlfToken replaces embedded newlines in a pinned server certificate
// before it's written to the INI file, since the INI backend isn't
// newline-safe; reversed on load. Matches the identity store's own
// newline-token convention for the same reason.
const crlfToken = "$CR$"

// appSep separates fields within one serialized app entry.
const appSep = "|"

// LoadHosts reads the hosts.ini layout: a `size=N`
// key under the root section, then one `[host.N]` section per entry. A
// missing file is not an error — it means an empty registry.
func LoadHosts(path string) ([]hostrecord.Snapshot, error) {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return nil, errors.Wrap(err, "load hosts.ini")
	}

	size := cfg.Section("").Key("size").MustInt(0)
	out := make([]hostrecord.Snapshot, 0, size)

	for i := 1; i <= size; i++ {
		sec, err := cfg.GetSection(hostSectionName(i))
		if err != nil {
			continue // a gap in the numbering shouldn't take down the rest
		}
		out = append(out, snapshotFromSection(sec))
	}
	return out, nil
}

// SaveHosts overwrites path with the given snapshots in full, per the
// registry's debounced-save worker.
func SaveHosts(path string, snapshots []hostrecord.Snapshot) error {
	cfg := ini.Empty()
	cfg.Section("").Key("size").SetValue(strconv.Itoa(len(snapshots)))

	for i, s := range snapshots {
		sec, err := cfg.NewSection(hostSectionName(i + 1))
		if err != nil {
			return errors.Wrap(err, "create host section")
		}
		fillSection(sec, s)
	}

	if err := cfg.SaveTo(path); err != nil {
		return errors.Wrap(err, "write hosts.ini")
	}
	return nil
}

func hostSectionName(index int) string {
	return "host." + strconv.Itoa(index)
}

func fillSection(sec *ini.Section, s hostrecord.Snapshot) {
	sec.Key("uuid").SetValue(s.UUID)
	sec.Key("name").SetValue(s.Name)
	sec.Key("customname").SetValue(strconv.FormatBool(s.CustomName))
	sec.Key("mac").SetValue(s.MAC)
	sec.Key("localaddr").SetValue(encodeAddress(s.LocalAddr))
	sec.Key("remoteaddr").SetValue(encodeAddress(s.RemoteAddr))
	sec.Key("ipv6addr").SetValue(encodeAddress(s.IPv6Addr))
	sec.Key("manualaddr").SetValue(encodeAddress(s.ManualAddr))
	sec.Key("servercert").SetValue(tokenizeCRLF(s.ServerCert))
	sec.Key("isnvidia").SetValue(strconv.FormatBool(s.IsNvidia))
	sec.Key("appcount").SetValue(strconv.Itoa(len(s.Apps)))
	for i, app := range s.Apps {
		sec.Key("app." + strconv.Itoa(i)).SetValue(encodeApp(app))
	}

	// deliberately not implemented: backup-hosts serialization path
}

func snapshotFromSection(sec *ini.Section) hostrecord.Snapshot {
	s := hostrecord.Snapshot{
		UUID:       sec.Key("uuid").String(),
		Name:       sec.Key("name").String(),
		CustomName: sec.Key("customname").MustBool(false),
		MAC:        sec.Key("mac").String(),
		LocalAddr:  decodeAddress(sec.Key("localaddr").String()),
		RemoteAddr: decodeAddress(sec.Key("remoteaddr").String()),
		IPv6Addr:   decodeAddress(sec.Key("ipv6addr").String()),
		ManualAddr: decodeAddress(sec.Key("manualaddr").String()),
		ServerCert: detokenizeCRLF(sec.Key("servercert").String()),
		IsNvidia:   sec.Key("isnvidia").MustBool(false),
	}

	appCount := sec.Key("appcount").MustInt(0)
	for i := 0; i < appCount; i++ {
		key := "app." + strconv.Itoa(i)
		if !sec.HasKey(key) {
			continue
		}
		if app, ok := decodeApp(sec.Key(key).String()); ok {
			s.Apps = append(s.Apps, app)
		}
	}
	return s
}

func encodeAddress(a hostrecord.Address) string {
	if a.Host == "" {
		return ""
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}

func decodeAddress(s string) hostrecord.Address {
	if s == "" {
		return hostrecord.Address{}
	}
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return hostrecord.Address{Host: s}
	}
	port, _ := strconv.Atoi(s[idx+1:])
	return hostrecord.Address{Host: s[:idx], Port: port}
}

// encodeApp serializes one Application as a pipe-delimited record. The
// order must match decodeApp exactly.
func encodeApp(a hostrecord.Application) string {
	fields := []string{
		strconv.Itoa(a.ID),
		a.GUID,
		a.Name,
		a.GamePlatform,
		strconv.FormatBool(a.HDRSupported),
		strconv.FormatBool(a.IsAppCollectorGame),
		strconv.FormatBool(a.Hidden),
		strconv.FormatBool(a.DirectLaunch),
		strconv.FormatInt(a.LastAppStartTime, 10),
		a.BoxArt,
	}
	return strings.Join(fields, appSep)
}

func decodeApp(s string) (hostrecord.Application, bool) {
	parts := strings.Split(s, appSep)
	if len(parts) != 10 {
		return hostrecord.Application{}, false
	}
	id, _ := strconv.Atoi(parts[0])
	hdr, _ := strconv.ParseBool(parts[4])
	collector, _ := strconv.ParseBool(parts[5])
	hidden, _ := strconv.ParseBool(parts[6])
	direct, _ := strconv.ParseBool(parts[7])
	lastStart, _ := strconv.ParseInt(parts[8], 10, 64)
	return hostrecord.Application{
		ID:                 id,
		GUID:               parts[1],
		Name:               parts[2],
		GamePlatform:       parts[3],
		HDRSupported:       hdr,
		IsAppCollectorGame: collector,
		Hidden:             hidden,
		DirectLaunch:       direct,
		LastAppStartTime:   lastStart,
		BoxArt:             parts[9],
	}, true
}

func tokenizeCRLF(pemStr string) string {
	return strings.ReplaceAll(pemStr, "\n", crlfToken)
}

func detokenizeCRLF(token string) string {
	return strings.ReplaceAll(token, crlfToken, "\n")
}
