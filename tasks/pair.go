package tasks

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/pairing"
	"github.com/vireo-stream/hostcore/registry"
	"github.com/vireo-stream/hostcore/transport"
)

const (
	deviceName             = "hostcore"
	pairStateSettleTimeout = 3 * time.Second
	pairStateSettlePoll    = 100 * time.Millisecond
)

// Identity is the slice of identity.Store the pair and quit-app tasks
// need: enough to build a transport.Client and to drive a pairing.Session.
type Identity interface {
	CertPEM() []byte
	KeyPEM() []byte
	Certificate() *x509.Certificate
	PrivateKey() *rsa.PrivateKey
}

// FederatedSecretResolver looks up a federated-identity secret package
// from the external identity service. The service itself lives outside
// this process; only the lookup contract is modeled here.
type FederatedSecretResolver interface {
	ResolveSecret(pairToken, externalUUID, pincodeUUID string) (pairing.FederatedSecretPackage, error)
}

// GeneratePIN returns a fresh 4-digit decimal PIN for the host user to
// enter, per the /pair endpoint's response contract.
func GeneratePIN() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

// StartPair begins a pairing attempt against hostUUID with pin. When
// useRazerJWT is true, the federated-identity variant is used instead,
// sourced from tokens and resolved via resolver.
func (m *Manager) StartPair(
	reg *registry.Registry,
	id Identity,
	hostUUID, pin string,
	useRazerJWT bool,
	tokens *FederatedTokenStore,
	resolver FederatedSecretResolver,
	log *zap.SugaredLogger,
) (*Task, error) {
	rec, ok := reg.Get(hostUUID)
	if !ok {
		return nil, errors.Newf("unknown host %s", hostUUID)
	}

	addrs := rec.UniqueAddresses()
	if len(addrs) == 0 {
		return nil, errors.Newf("host %s has no known address", hostUUID)
	}
	addr := addrs[0]
	httpPort := addr.Port
	if httpPort == 0 {
		httpPort = hostrecord.DefaultHTTPPort
	}
	// Round 5 confirms TLS end-to-end, so the client needs an HTTPS port
	// up front even when the host has never answered over HTTPS before.
	httpsPort := rec.ActiveHTTPSPort()
	if httpsPort == 0 {
		httpsPort = hostrecord.DefaultHTTPSPort
	}

	client, err := transport.New(transport.Target{Host: addr.Host, HTTPPort: httpPort, HTTPSPort: httpsPort}, id.CertPEM(), id.KeyPEM())
	if err != nil {
		return nil, err
	}

	major7 := rec.AppVersion().Major7OrAbove()
	session := pairing.NewSession(client, id, deviceName, major7, log)

	t := m.start(KindPair, hostUUID, func(t *Task) {
		t.setCancel(session.Cancel)

		var result pairing.Result
		var pairErr error
		if useRazerJWT {
			pairToken, externalUUID := tokens.Tokens()
			if resolver == nil || pairToken == "" || externalUUID == "" {
				t.complete(false, pairErrorToken(pairing.RazerWrong, false))
				return
			}
			pkg, resolveErr := resolver.ResolveSecret(pairToken, externalUUID, uuid.NewString())
			if resolveErr != nil {
				t.complete(false, resolveErr.Error())
				return
			}
			result, pairErr = session.PairFederated(pin, pkg)
		} else {
			result, pairErr = session.Pair(pin)
		}

		if pairErr != nil {
			log.Debugw("pairing attempt returned an error", "host", hostUUID, "error", pairErr)
			if token, ok := pairErrorClassToken(pairErr); ok {
				t.complete(false, token)
				return
			}
		}
		if result.Outcome != pairing.Paired {
			t.complete(false, pairErrorToken(result.Outcome, rec.CurrentGameID() != 0))
			return
		}

		rec.SetServerCert(result.ServerCert)
		reg.SaveHost(rec)

		waitForPairState(rec, hostrecord.PairPaired, pairStateSettleTimeout)
		t.complete(true, "")
	})

	return t, nil
}

// pairErrorToken maps a pairing outcome to the fixed localization token
// the UI resolves. A generic failure maps differently while a game is
// still running on the host, since pairing can't proceed over a live
// session and the operator needs to be told to quit it first.
func pairErrorToken(o pairing.Outcome, gameRunning bool) string {
	switch o {
	case pairing.PinWrong:
		return "remote_play_client_pair_res_failed_1"
	case pairing.AlreadyInProgress:
		return "remote_play_client_pair_res_failed_4"
	case pairing.RazerWrong:
		return "remote_play_client_pair_res_failed_5"
	default:
		if gameRunning {
			return "remote_play_client_pair_res_failed_2"
		}
		return "remote_play_client_pair_res_failed_3"
	}
}

// pairErrorClassToken maps a transport-level pairing failure to its
// token: a host that answered with a GFE error gets the generic
// connect-error text, a connection-level failure gets the PIN-expired
// text (the usual cause of a dead round-1 wait).
func pairErrorClassToken(err error) (string, bool) {
	var protoErr *transport.ProtocolError
	if errors.As(err, &protoErr) {
		return "remote_play_client_pair_res_failed_6", true
	}
	var netErr *transport.NetworkError
	if errors.As(err, &netErr) {
		return "remote_play_client_pair_res_failed_7", true
	}
	return "", false
}

func waitForPairState(rec *hostrecord.Record, want hostrecord.PairState, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if rec.PairState() == want {
			return
		}
		time.Sleep(pairStateSettlePoll)
	}
}
