package hostrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleServerInfo = `<?xml version="1.0" encoding="utf-8"?>
<root status_code="200">
  <hostname>LIVING-ROOM-PC</hostname>
  <uniqueid>0123456789ABCDEF</uniqueid>
  <mac>AA:BB:CC:DD:EE:FF</mac>
  <LocalIP>192.168.1.50</LocalIP>
  <HttpsPort>47984</HttpsPort>
  <ExternalIP>203.0.113.5</ExternalIP>
  <ExternalPort>47989</ExternalPort>
  <state>SUNSHINE_SERVER_FREE</state>
  <currentgame>0</currentgame>
  <PairStatus>0</PairStatus>
  <appversion>7.1.450.0</appversion>
  <GfeVersion>3.23.0.74</GfeVersion>
  <gputype>NVIDIA GeForce RTX 3080</gputype>
  <MaxLumaPixelsHEVC>8847360</MaxLumaPixelsHEVC>
  <ServerCodecModeSupport>259</ServerCodecModeSupport>
  <DisplayMode>
    <Width>1920</Width>
    <Height>1080</Height>
    <RefreshRate>60</RefreshRate>
  </DisplayMode>
  <DisplayMode>
    <Width>3840</Width>
    <Height>2160</Height>
    <RefreshRate>120</RefreshRate>
  </DisplayMode>
</root>`

func TestFromXML(t *testing.T) {
	r, err := FromXML([]byte(sampleServerInfo))
	require.NoError(t, err)

	assert.Equal(t, "0123456789ABCDEF", r.UUID())
	assert.Equal(t, "LIVING-ROOM-PC", r.Name())
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", r.MAC())
	assert.Equal(t, PairNotPaired, r.PairState())
	assert.Equal(t, VersionQuad{7, 1, 450, 0}, r.AppVersion())
	assert.True(t, r.AppVersion().Major7OrAbove())
	assert.False(t, r.IsNvidia())
	assert.Len(t, r.DisplayModes(), 2)
}

func TestFromXML_EmptyMACTreatedAsAbsent(t *testing.T) {
	body := []byte(`<root status_code="200"><uniqueid>X</uniqueid><mac>00:00:00:00:00:00</mac></root>`)
	r, err := FromXML(body)
	require.NoError(t, err)
	assert.Empty(t, r.MAC())
}

func TestFromXML_MjolnirMeansNvidia(t *testing.T) {
	body := []byte(`<root status_code="200"><uniqueid>X</uniqueid><state>MJOLNIR_FREE</state></root>`)
	r, err := FromXML(body)
	require.NoError(t, err)
	assert.True(t, r.IsNvidia())
}

func TestUpdate_Idempotent(t *testing.T) {
	a := New("0123456789ABCDEF")
	b, err := FromXML([]byte(sampleServerInfo))
	require.NoError(t, err)

	assert.True(t, a.Update(b), "first update into an unpopulated record should change something")
	assert.False(t, a.Update(b), "second update with identical data should report no change")

	c, err := FromXML([]byte(sampleServerInfo))
	require.NoError(t, err)
	assert.False(t, c.Update(c), "self-update is always a no-op")
}

func TestUpdate_UUIDMismatchPanics(t *testing.T) {
	a := New("uuid-a")
	b := New("uuid-b")
	assert.Panics(t, func() { a.Update(b) })
}

func TestUpdate_CustomNameNotOverwritten(t *testing.T) {
	a := New("uuid-a")
	a.SetCustomName("My Gaming PC")

	b := New("uuid-a")
	b.name = "SERVER-REPORTED-NAME"

	a.Update(b)
	assert.Equal(t, "My Gaming PC", a.Name())
}

func TestUpdate_AppListPreservesClientOnlyFields(t *testing.T) {
	a := New("uuid-a")
	a.apps = []Application{{ID: 1, Name: "Steam", Hidden: true, DirectLaunch: true}}

	b := New("uuid-a")
	b.apps = []Application{{ID: 1, Name: "Steam Renamed"}}

	changed := a.Update(b)
	assert.True(t, changed)

	app, ok := a.App(1)
	require.True(t, ok)
	assert.Equal(t, "Steam Renamed", app.Name)
	assert.True(t, app.Hidden)
	assert.True(t, app.DirectLaunch)
}

func TestUniqueAddresses_DedupesPreservingOrder(t *testing.T) {
	r := New("uuid-a")
	r.activeAddr = Address{Host: "10.0.0.5", Port: 47984}
	r.localAddr = Address{Host: "10.0.0.5", Port: 47984}
	r.remoteAddr = Address{Host: "203.0.113.5", Port: 47989}

	addrs := r.UniqueAddresses()
	require.Len(t, addrs, 2)
	assert.Equal(t, Address{Host: "10.0.0.5", Port: 47984}, addrs[0])
	assert.Equal(t, Address{Host: "203.0.113.5", Port: 47989}, addrs[1])
}

func TestUniqueAddresses_EmptyRecordReturnsAtLeastNothingButNoPanic(t *testing.T) {
	r := New("uuid-a")
	assert.Empty(t, r.UniqueAddresses())
}

func TestIsEqualSerialized_IgnoresEphemeralFields(t *testing.T) {
	a := New("uuid-a")
	a.name = "PC"
	b := New("uuid-a")
	b.name = "PC"
	b.state = StateOnline
	b.currentGameID = 42

	assert.True(t, a.IsEqualSerialized(b))
}

func TestWake_EmptyMACReturnsFalse(t *testing.T) {
	r := New("uuid-a")
	assert.False(t, r.Wake(47989, func() []string { return nil }))
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := New("uuid-a")
	r.name = "PC"
	r.mac = "aa:bb:cc:dd:ee:ff"
	r.serverCert = "-----BEGIN CERTIFICATE-----\nABC\n-----END CERTIFICATE-----\n"
	r.apps = []Application{{ID: 1, Name: "Steam"}}

	snap := r.ToSnapshot()
	r2 := FromSnapshot(snap)
	assert.True(t, r.IsEqualSerialized(r2))
	assert.Equal(t, PairPaired, r2.PairState())
}
