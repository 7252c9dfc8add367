package hostrecord

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/vireo-stream/hostcore/errors"
)

// serverInfoXML mirrors the well-known serverinfo response schema.
// Numeric fields are parsed leniently: a malformed value
// defaults to zero rather than aborting the whole parse, since a stray
// unparsable field shouldn't take down an otherwise-usable response.
type serverInfoXML struct {
	XMLName                xml.Name         `xml:"root"`
	StatusCode             int              `xml:"status_code,attr"`
	Hostname               string           `xml:"hostname"`
	UniqueID               string           `xml:"uniqueid"`
	MAC                    string           `xml:"mac"`
	LocalIP                string           `xml:"LocalIP"`
	HTTPSPort              string           `xml:"HttpsPort"`
	ExternalIP             string           `xml:"ExternalIP"`
	ExternalPort           string           `xml:"ExternalPort"`
	State                  string           `xml:"state"`
	CurrentGame            string           `xml:"currentgame"`
	PairStatus             string           `xml:"PairStatus"`
	AppVersion             string           `xml:"appversion"`
	GfeVersion             string           `xml:"GfeVersion"`
	GPUType                string           `xml:"gputype"`
	MaxLumaPixelsHEVC      string           `xml:"MaxLumaPixelsHEVC"`
	ServerCodecModeSupport string           `xml:"ServerCodecModeSupport"`
	RazerIDIdentifier      string           `xml:"RazerIdIdentifier"`
	RazerIDPairStatus      string           `xml:"RazerIdPairStatus"`
	DisplayModes           []displayModeXML `xml:"DisplayMode"`
}

type displayModeXML struct {
	Width       string `xml:"Width"`
	Height      string `xml:"Height"`
	RefreshRate string `xml:"RefreshRate"`
}

const noMACSentinel = "00:00:00:00:00:00"

// mjolnirToken is the server-state substring that marks Nvidia-branded
// server software; its absence means third-party server software.
const mjolnirToken = "MJOLNIR"

// FromXML parses a /serverinfo response body into a fresh detached Record.
// The caller (poller) compares the resulting UUID against the record it
// targeted before merging; FromXML itself does no such check.
func FromXML(body []byte) (*Record, error) {
	var x serverInfoXML
	if err := xml.Unmarshal(body, &x); err != nil {
		return nil, errors.Wrap(err, "parse serverinfo XML")
	}
	if x.UniqueID == "" {
		return nil, errors.New("serverinfo response missing uniqueid")
	}

	r := New(x.UniqueID)
	r.name = x.Hostname

	mac := normalizeMAC(x.MAC)
	if mac != noMACSentinel {
		r.mac = mac
	}

	r.localAddr = Address{Host: x.LocalIP}
	r.remoteAddr = Address{Host: x.ExternalIP, Port: parseIntSafe(x.ExternalPort)}
	r.activeHTTPSPort = parseIntSafe(x.HTTPSPort)

	r.state = StateUnknown
	r.pairState = parsePairStatus(x.PairStatus)
	r.currentGameID = parseIntSafe(x.CurrentGame)
	r.appVersion = parseVersionQuad(x.AppVersion)
	r.gfeVersion = parseVersionQuad(x.GfeVersion)
	r.gpuModel = x.GPUType
	r.maxLumaPixelsHEVC = int64(parseIntSafe(x.MaxLumaPixelsHEVC))
	r.codecBitmask = parseIntSafe(x.ServerCodecModeSupport)
	r.isNvidia = strings.Contains(x.State, mjolnirToken)
	r.identityPairMode = parseIdentityPairMode(x.RazerIDPairStatus)
	r.razerIdentifier = strings.TrimSpace(x.RazerIDIdentifier)

	for _, dm := range x.DisplayModes {
		r.displayModes = append(r.displayModes, DisplayMode{
			Width:       parseIntSafe(dm.Width),
			Height:      parseIntSafe(dm.Height),
			RefreshRate: parseIntSafe(dm.RefreshRate),
		})
	}

	return r, nil
}

// appListXML mirrors the /applist response schema: a flat list of App
// elements, each describing one installed title.
type appListXML struct {
	XMLName xml.Name `xml:"root"`
	Apps    []appXML `xml:"App"`
}

type appXML struct {
	ID                 string `xml:"ID"`
	AppTitle           string `xml:"AppTitle"`
	GameGuid           string `xml:"Guid"`
	GamePlatform       string `xml:"GamePlatform"`
	IsHdrSupported     string `xml:"IsHdrSupported"`
	IsAppCollectorGame string `xml:"IsAppCollectorGame"`
}

// ParseAppList parses a /applist response body into a bare application
// list; client-only fields (Hidden, DirectLaunch, BoxArt, LastAppStartTime)
// are left zero and must survive a subsequent MergeAppList call against the
// record's existing list.
func ParseAppList(body []byte) ([]Application, error) {
	var x appListXML
	if err := xml.Unmarshal(body, &x); err != nil {
		return nil, errors.Wrap(err, "parse applist XML")
	}

	apps := make([]Application, 0, len(x.Apps))
	for _, a := range x.Apps {
		apps = append(apps, Application{
			ID:                 parseIntSafe(a.ID),
			GUID:               a.GameGuid,
			Name:               a.AppTitle,
			GamePlatform:       a.GamePlatform,
			HDRSupported:       a.IsHdrSupported == "1",
			IsAppCollectorGame: a.IsAppCollectorGame == "1",
		})
	}
	return apps, nil
}

func normalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

func parseIntSafe(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parsePairStatus(s string) PairState {
	switch strings.TrimSpace(s) {
	case "1":
		return PairPaired
	case "0":
		return PairNotPaired
	default:
		return PairUnknown
	}
}

func parseIdentityPairMode(s string) IdentityPairMode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANUAL":
		return IdentityModeManual
	case "AUTOMATIC":
		return IdentityModeAutomatic
	case "DISABLE":
		return IdentityModeDisable
	default:
		return IdentityModeUnknown
	}
}

// parseVersionQuad parses a dot-separated integer version like
// "7.1.450.0". Missing or malformed components default to zero.
func parseVersionQuad(s string) VersionQuad {
	parts := strings.Split(strings.TrimSpace(s), ".")
	get := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		return parseIntSafe(parts[i])
	}
	return VersionQuad{
		Major: get(0),
		Minor: get(1),
		Patch: get(2),
		Build: get(3),
	}
}
