package poller

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/hostrecord"
)

type stubIdentity struct {
	certPEM, keyPEM []byte
}

func (s *stubIdentity) CertPEM() []byte { return s.certPEM }
func (s *stubIdentity) KeyPEM() []byte  { return s.keyPEM }

func newStubIdentity(t *testing.T) *stubIdentity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test client"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return &stubIdentity{certPEM: certPEM, keyPEM: keyPEM}
}

func serverInfoBody(uuid string, pairStatus string) string {
	return fmt.Sprintf(`<root status_code="200"><hostname>testhost</hostname><uniqueid>%s</uniqueid>`+
		`<mac>00:11:22:33:44:55</mac><LocalIP>127.0.0.1</LocalIP><HttpsPort>0</HttpsPort>`+
		`<ExternalIP></ExternalIP><ExternalPort>0</ExternalPort><state>COMMON_STATE</state>`+
		`<currentgame>0</currentgame><PairStatus>%s</PairStatus><appversion>7.1.450.0</appversion>`+
		`<GfeVersion>3.23.0.74</GfeVersion><gputype>GeForce</gputype><MaxLumaPixelsHEVC>0</MaxLumaPixelsHEVC>`+
		`<ServerCodecModeSupport>0</ServerCodecModeSupport></root>`, uuid, pairStatus)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (addr hostrecord.Address, cleanup func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return hostrecord.Address{Host: u.Hostname(), Port: port}, srv.Close
}

func TestPollOnce_Online_MergesRecord(t *testing.T) {
	const uuid = "abc-123"
	addr, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, serverInfoBody(uuid, "0"))
	})
	defer closeSrv()

	rec := hostrecord.New(uuid)
	rec.SetManualAddress(addr)

	var mu sync.Mutex
	var notified []hostrecord.ComputerState
	onChange := func(r *hostrecord.Record) {
		mu.Lock()
		notified = append(notified, r.State())
		mu.Unlock()
	}

	p := New(rec, newStubIdentity(t), onChange, zap.NewNop().Sugar())
	p.pollOnce()

	assert.Equal(t, hostrecord.StateOnline, rec.State())
	assert.Equal(t, "testhost", rec.Name())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, hostrecord.StateOnline, notified[0])
}

func TestPollOnce_UUIDMismatch_Ignored(t *testing.T) {
	addr, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, serverInfoBody("someone-else", "0"))
	})
	defer closeSrv()

	rec := hostrecord.New("abc-123")
	rec.SetManualAddress(addr)

	p := New(rec, newStubIdentity(t), func(*hostrecord.Record) {}, zap.NewNop().Sugar())
	p.pollOnce()

	assert.Equal(t, hostrecord.StateOffline, rec.State())
}

func TestPollOnce_Unreachable_GoesOffline(t *testing.T) {
	rec := hostrecord.New("abc-123")
	rec.SetManualAddress(hostrecord.Address{Host: "127.0.0.1", Port: 1})

	var calls int
	p := New(rec, newStubIdentity(t), func(*hostrecord.Record) { calls++ }, zap.NewNop().Sugar())
	p.pollOnce()

	assert.Equal(t, hostrecord.StateOffline, rec.State())
	assert.Equal(t, 1, calls)
}

func TestPollOnce_NoAddresses_NoNotifyWhenAlreadyOffline(t *testing.T) {
	rec := hostrecord.New("abc-123")

	var calls int
	p := New(rec, newStubIdentity(t), func(*hostrecord.Record) { calls++ }, zap.NewNop().Sugar())

	p.pollOnce() // first call transitions UNKNOWN -> OFFLINE, notifying once
	require.Equal(t, 1, calls)

	p.pollOnce() // already offline, must not re-notify
	assert.Equal(t, hostrecord.StateOffline, rec.State())
	assert.Equal(t, 1, calls, "already-offline record with no addresses shouldn't re-notify")
}

func TestStop_UnblocksRun(t *testing.T) {
	rec := hostrecord.New("abc-123")
	p := New(rec, newStubIdentity(t), func(*hostrecord.Record) {}, zap.NewNop().Sugar())

	runDone := make(chan struct{})
	go func() {
		p.Run()
		close(runDone)
	}()

	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Wait()

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
