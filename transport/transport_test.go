package transport

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget(t *testing.T, srv *httptest.Server) Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return Target{Host: u.Hostname(), HTTPPort: port}
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0123456789ABCDEF", r.URL.Query().Get("uniqueid"))
		assert.NotEmpty(t, r.URL.Query().Get("uuid"))
		w.Write([]byte(`<root status_code="200"><hostname>PC</hostname></root>`))
	}))
	defer srv.Close()

	c, err := New(testTarget(t, srv), selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	body, err := c.Get(false, "/serverinfo", url.Values{}, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<hostname>PC</hostname>")
}

func TestGet_ProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<root status_code="401" status_message="Unauthorized"></root>`))
	}))
	defer srv.Close()

	c, err := New(testTarget(t, srv), selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	_, err = c.Get(false, "/serverinfo", url.Values{}, 2*time.Second)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, StatusUnauthorized, protoErr.Code)
}

func TestGet_MalformedInvalidRemappedTo418(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<root status_code="-1" status_message="Invalid"></root>`))
	}))
	defer srv.Close()

	c, err := New(testTarget(t, srv), selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	_, err = c.Get(false, "/serverinfo", url.Values{}, 2*time.Second)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, StatusMalformedInvalidSubst, protoErr.Code)
}

func TestGet_NetworkErrorOnConnRefused(t *testing.T) {
	c, err := New(Target{Host: "127.0.0.1", HTTPPort: 1}, selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	_, err = c.Get(false, "/serverinfo", url.Values{}, 500*time.Millisecond)
	require.Error(t, err)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestGet_HTTPSWithoutKnownPortFails(t *testing.T) {
	c, err := New(Target{Host: "127.0.0.1", HTTPPort: 47989}, selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	_, err = c.Get(true, "/serverinfo", url.Values{}, time.Second)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "HTTPS"))
}

func TestStopFlag_CancelsUnboundedWait(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c, err := New(testTarget(t, srv), selfSignedPEM(t), selfSignedKeyPEM(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(false, "/pair", url.Values{}, 0)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	c.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop flag did not cancel unbounded request within 2s")
	}
}
