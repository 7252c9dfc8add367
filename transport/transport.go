// Package transport implements the small HTTP client every call to a
// streaming host goes through: two base URLs (HTTP and
// HTTPS) over one target, client-cert mutual TLS on the HTTPS side with
// server-name verification disabled, per-request query params, a
// configurable timeout where zero means unbounded, and cooperative
// cancellation via a stop flag polled at 200ms.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/vireo-stream/hostcore/errors"
)

// clientUniqueID is the fixed uniqueid= query param value every request
// carries. GameStream servers key some per-client state on it.
const clientUniqueID = "0123456789ABCDEF"

// pollInterval is how often an unbounded-timeout request checks the stop
// flags while waiting on a response.
const pollInterval = 200 * time.Millisecond

// globalStop is the process-wide cancellation signal; any in-flight
// unbounded request across every Client observes it.
var globalStop = newStopFlag()

// Stop trips the process-wide stop signal, used on process exit to
// unblock every pending pairing Round 1 request.
func Stop() { globalStop.trip() }

// Target is the (host, port, optional https-port) triple a Client talks to.
type Target struct {
	Host      string
	HTTPPort  int
	HTTPSPort int // 0 means "unknown"; HTTPS calls fail fast if so
}

// Client is an HTTP(S) transport bound to one host Target. Safe for
// concurrent use; each request is its own logical connection.
type Client struct {
	target Target

	clientCertPEM []byte
	clientKeyPEM  []byte

	httpClient  *http.Client
	httpsClient *http.Client

	stop *stopFlag
}

// New constructs a Client for target, using clientCertPEM/clientKeyPEM for
// HTTPS mutual TLS.
func New(target Target, clientCertPEM, clientKeyPEM []byte) (*Client, error) {
	c := &Client{
		target:        target,
		clientCertPEM: clientCertPEM,
		clientKeyPEM:  clientKeyPEM,
		stop:          newStopFlag(),
	}

	c.httpClient = &http.Client{}

	cert, err := tls.X509KeyPair(clientCertPEM, clientKeyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "load client certificate for mTLS")
	}
	c.httpsClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates:       []tls.Certificate{cert},
				InsecureSkipVerify: true, // trust derives from pinned-cert comparison, not hostname verification
			},
		},
	}

	return c, nil
}

// Stop trips this client's own stop flag, canceling any in-flight unbounded
// request it is making (used by pair cancellation).
func (c *Client) Stop() { c.stop.trip() }

// ResetStop clears this client's stop flag so it can be reused for a
// subsequent request after a prior cancellation.
func (c *Client) ResetStop() { c.stop.reset() }

// Get issues a GET request to path on the HTTPS base URL if useHTTPS, else
// HTTP, with args merged into the query string alongside uniqueid/uuid.
// timeout == 0 means unbounded, polling the stop flags every 200ms; any
// other value is a hard deadline. Returns the raw XML body on a 200
// status_code, or a *ProtocolError / *NetworkError otherwise.
func (c *Client) Get(useHTTPS bool, path string, args url.Values, timeout time.Duration) ([]byte, error) {
	base := c.httpURL(path)
	client := c.httpClient
	if useHTTPS {
		if c.target.HTTPSPort == 0 {
			return nil, errors.New("HTTPS requested but no HTTPS port known for target")
		}
		base = c.httpsURL(path)
		client = c.httpsClient
	}

	q := url.Values{}
	for k, v := range args {
		q[k] = v
	}
	q.Set("uniqueid", clientUniqueID)
	q.Set("uuid", uuid.NewString())
	base.RawQuery = q.Encode()

	body, err := c.doWithCancellation(client, base.String(), timeout)
	if err != nil {
		return nil, err
	}
	return validateRootStatus(body)
}

func (c *Client) httpURL(path string) *url.URL {
	return &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", c.target.Host, c.target.HTTPPort), Path: path}
}

func (c *Client) httpsURL(path string) *url.URL {
	return &url.URL{Scheme: "https", Host: fmt.Sprintf("%s:%d", c.target.Host, c.target.HTTPSPort), Path: path}
}

// doWithCancellation performs the request honoring both the process-wide
// and per-client stop flags, polled every 200ms during an unbounded wait.
func (c *Client) doWithCancellation(client *http.Client, rawURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, timeout)
		defer timeoutCancel()
	} else {
		stop := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if globalStop.isTripped() || c.stop.isTripped() {
						cancel()
						return
					}
				case <-stop:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		defer close(stop)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "GET " + rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read response body", Err: err}
	}
	return body, nil
}

type rootStatus struct {
	XMLName xml.Name `xml:"root"`
	Code    int      `xml:"status_code,attr"`
	Message string   `xml:"status_message,attr"`
}

// validateRootStatus parses just enough of the XML body to check
// status_code, remaps the "-1 Invalid" special case, and returns the body
// unchanged for the caller to parse its actual payload.
func validateRootStatus(body []byte) ([]byte, error) {
	var rs rootStatus
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&rs); err != nil {
		return nil, errors.Wrap(err, "parse response root element")
	}

	if rs.Code == StatusOK {
		return body, nil
	}

	code, message := remapMalformedInvalid(rs.Code, rs.Message)
	return nil, &ProtocolError{Code: code, Message: message}
}

// ClientCertHex returns the client certificate PEM, hex-encoded, as sent
// in the pairing Round 1 clientcert= query parameter.
func (c *Client) ClientCertHex() string {
	return hex.EncodeToString(c.clientCertPEM)
}

// TargetInfo returns the bound target, e.g. so a caller can inspect the
// HTTPS port after an HTTPS->HTTP fallback re-derives it.
func (c *Client) TargetInfo() Target { return c.target }

// SetHTTPSPort updates the known HTTPS port, used after a poller iteration
// re-derives it from a /serverinfo response.
func (c *Client) SetHTTPSPort(port int) { c.target.HTTPSPort = port }
