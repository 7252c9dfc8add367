// Package pairing implements the five-round cryptographic handshake
// between this client and a host, pinning the host's
// self-signed certificate on success, plus the identity-federated variant
// that skips manual PIN entry when an external identity service has
// already authorized the pair.
package pairing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"encoding/xml"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/transport"
)

// Outcome is the terminal result of a pairing attempt.
type Outcome string

const (
	Paired            Outcome = "PAIRED"
	PinWrong          Outcome = "PIN_WRONG"
	Failed            Outcome = "FAILED"
	AlreadyInProgress Outcome = "ALREADY_IN_PROGRESS"
	RazerWrong        Outcome = "RAZER_WRONG"
)

// Result is returned by Pair/PairFederated.
type Result struct {
	Outcome    Outcome
	ServerCert string // PEM, non-empty only on Paired
}

// Identity is the narrow slice of identity.Store that pairing needs,
// avoiding an import-cycle-prone dependency on the concrete type.
type Identity interface {
	CertPEM() []byte
	Certificate() *x509.Certificate
	PrivateKey() *rsa.PrivateKey
}

// Session drives one pairing attempt against a single target through an
// already-constructed transport.Client. A Session is single-use: build a
// fresh one per attempt.
type Session struct {
	client     *transport.Client
	id         Identity
	deviceName string
	major7     bool // whether the server's GFE major version is >= 7 -> SHA-256
	log        *zap.SugaredLogger
}

// NewSession constructs a pairing attempt. major7OrAbove should come from
// the target's last-known server app version; it selects the handshake
// digest.
func NewSession(client *transport.Client, id Identity, deviceName string, major7OrAbove bool, log *zap.SugaredLogger) *Session {
	return &Session{
		client:     client,
		id:         id,
		deviceName: deviceName,
		major7:     major7OrAbove,
		log:        logger.AddPairingSymbol(log),
	}
}

// Cancel unblocks an in-flight Pair call waiting on Round 1's unlimited
// timeout (the host user has not yet entered the PIN).
func (s *Session) Cancel() { s.client.Stop() }

// Pair runs the standard five-round handshake using a manually-entered
// PIN.
func (s *Session) Pair(pin string) (Result, error) {
	return s.pair(pin, nil)
}

// federatedParams carries the extra query-string values the federated
// variant adds to Round 1, and the pre-wrapped PIN cipher it substitutes
// for a manually-typed PIN.
type federatedParams struct {
	pairToken    string
	externalUUID string
	pincodeUUID  string
	wrappedPIN   string
}

func (s *Session) pair(pin string, fed *federatedParams) (Result, error) {
	salt := randomBytes(16)
	clientChallenge := randomBytes(16)
	clientSecret := randomBytes(16)

	hash := hashFunc(s.major7)
	hLen := hashLen(s.major7)

	aesKey := zeroPadTo(hash(append(append([]byte{}, salt...), []byte(pin)...)), 16)

	serverCertPEM, outcome, err := s.round1GetServerCert(salt, fed)
	if outcome != "" || err != nil {
		return Result{Outcome: outcome}, err
	}
	s.trace("round 1 complete, server certificate pinned")

	serverCert, err := parseCertHexPEM(serverCertPEM)
	if err != nil {
		s.unpair()
		return Result{Outcome: Failed}, errors.Wrap(err, "parse pinned server certificate")
	}

	decryptedResponse, outcome, err := s.round2ClientChallenge(aesKey, clientChallenge)
	if outcome != "" || err != nil {
		s.unpair()
		return Result{Outcome: outcome}, err
	}
	s.trace("round 2 complete, challenge response decrypted")

	serverSecret, outcome, err := s.round3ServerChallengeResp(aesKey, hash, hLen, clientChallenge, clientSecret, serverCert, decryptedResponse)
	if outcome != "" || err != nil {
		s.unpair()
		return Result{Outcome: outcome}, err
	}
	s.trace("round 3 complete, server signature and PIN verified")

	outcome, err = s.round4ClientPairingSecret(clientSecret, serverSecret)
	if outcome != "" || err != nil {
		s.unpair()
		return Result{Outcome: outcome}, err
	}
	s.trace("round 4 complete, client pairing secret accepted")

	if outcome, err := s.round5PairChallenge(); outcome != "" || err != nil {
		s.unpair()
		return Result{Outcome: outcome}, err
	}
	s.trace("round 5 complete, HTTPS confirmed against pinned certificate")

	return Result{Outcome: Paired, ServerCert: serverCertPEM}, nil
}

// trace emits a per-round progress line, gated behind -vvv so challenge
// material stays out of everyday logs.
func (s *Session) trace(msg string) {
	if logger.ShowPairingRounds() {
		s.log.Debugw(msg, "device", s.deviceName)
	}
}

// round1GetServerCert performs the unlimited-timeout getservercert request,
// pins the returned certificate, and returns it in PEM form.
func (s *Session) round1GetServerCert(salt []byte, fed *federatedParams) (string, Outcome, error) {
	args := url.Values{
		"devicename": {s.deviceName},
		"salt":       {hex.EncodeToString(salt)},
		"clientcert": {s.client.ClientCertHex()},
		"phrase":     {"getservercert"},
	}
	if fed != nil {
		args.Set("pairtoken", fed.pairToken)
		args.Set("pincodeuuid", fed.pincodeUUID)
		args.Set("externaluuid", fed.externalUUID)
		args.Set("cipher", fed.wrappedPIN)
	}

	body, err := s.client.Get(false, "/pair", args, 0)
	if err != nil {
		return "", Failed, errors.Wrap(err, "round 1 getservercert")
	}

	var resp struct {
		Paired    string `xml:"paired"`
		PlainCert string `xml:"plaincert"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", Failed, errors.Wrap(err, "parse round 1 response")
	}
	if resp.Paired != "1" {
		return "", Failed, errors.New("host rejected getservercert")
	}
	if resp.PlainCert == "" {
		s.unpair()
		return "", AlreadyInProgress, nil
	}

	certBytes, err := hex.DecodeString(resp.PlainCert)
	if err != nil {
		return "", Failed, errors.Wrap(err, "decode plaincert hex")
	}
	return string(certBytes), "", nil
}

// round2ClientChallenge sends the encrypted client challenge and returns
// the decrypted response raw; round 3 splits it into
// serverResponseHash||serverChallenge once it knows hashLen.
func (s *Session) round2ClientChallenge(aesKey, clientChallenge []byte) (decryptedResponse []byte, outcome Outcome, err error) {
	enc, err := aesECBEncrypt(aesKey, clientChallenge)
	if err != nil {
		return nil, Failed, errors.Wrap(err, "encrypt client challenge")
	}

	body, err := s.client.Get(false, "/pair", url.Values{
		"devicename":      {s.deviceName},
		"clientchallenge": {hex.EncodeToString(enc)},
		"phrase":          {"challenge"},
	}, 30*time.Second)
	if err != nil {
		return nil, Failed, errors.Wrap(err, "round 2 clientchallenge")
	}

	var resp struct {
		ChallengeResponse string `xml:"challengeresponse"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, Failed, errors.Wrap(err, "parse round 2 response")
	}

	dec, err := aesECBDecrypt(aesKey, mustHexDecode(resp.ChallengeResponse))
	if err != nil {
		return nil, Failed, errors.Wrap(err, "decrypt challenge response")
	}
	return dec, "", nil
}

func (s *Session) round3ServerChallengeResp(
	aesKey []byte,
	hash func([]byte) []byte,
	hLen int,
	originalClientChallenge, clientSecret []byte,
	serverCert *x509.Certificate,
	serverResponseRaw []byte,
) ([]byte, Outcome, error) {
	if len(serverResponseRaw) < hLen+16 {
		return nil, Failed, errors.New("round 2 response shorter than hashLen+16")
	}
	serverResponseHash := serverResponseRaw[:hLen]
	actualServerChallenge := serverResponseRaw[hLen : hLen+16]

	challengeResponse := concatBytes(actualServerChallenge, serverCert.Signature, clientSecret)
	digest := zeroPadTo(hash(challengeResponse), 32)

	enc, err := aesECBEncrypt(aesKey, digest)
	if err != nil {
		return nil, Failed, errors.Wrap(err, "encrypt challenge response")
	}

	body, err := s.client.Get(false, "/pair", url.Values{
		"devicename":          {s.deviceName},
		"serverchallengeresp": {hex.EncodeToString(enc)},
		"phrase":              {"challenge"},
	}, 30*time.Second)
	if err != nil {
		return nil, Failed, errors.Wrap(err, "round 3 serverchallengeresp")
	}

	var resp struct {
		PairingSecret string `xml:"pairingsecret"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, Failed, errors.Wrap(err, "parse round 3 response")
	}
	raw := mustHexDecode(resp.PairingSecret)
	if len(raw) < 16 {
		return nil, Failed, errors.New("pairingsecret shorter than 16 bytes")
	}
	serverSecret := raw[:16]
	serverSignature := raw[16:]

	pub, ok := serverCert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, Failed, errors.New("server certificate has non-RSA public key")
	}
	if err := rsa.VerifyPKCS1v15(pub, 0, hashSHA256(serverSecret), serverSignature); err != nil {
		return nil, Failed, errors.Wrap(err, "server signature verification failed, possible MITM")
	}

	expected := zeroPadTo(hash(concatBytes(originalClientChallenge, serverCert.Signature, serverSecret)), hLen)
	if !bytesEqual(expected[:hLen], serverResponseHash) {
		return nil, PinWrong, nil
	}

	return serverSecret, "", nil
}

func (s *Session) round4ClientPairingSecret(clientSecret, serverSecret []byte) (Outcome, error) {
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.id.PrivateKey(), 0, hashSHA256(clientSecret))
	if err != nil {
		return Failed, errors.Wrap(err, "sign client pairing secret")
	}
	payload := concatBytes(clientSecret, signature)

	body, err := s.client.Get(false, "/pair", url.Values{
		"devicename":          {s.deviceName},
		"clientpairingsecret": {hex.EncodeToString(payload)},
		"phrase":              {"pairchallenge"},
	}, 30*time.Second)
	if err != nil {
		return Failed, errors.Wrap(err, "round 4 clientpairingsecret")
	}

	var resp struct {
		Paired string `xml:"paired"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return Failed, errors.Wrap(err, "parse round 4 response")
	}
	if resp.Paired != "1" {
		return Failed, errors.New("host rejected clientpairingsecret")
	}
	return "", nil
}

func (s *Session) round5PairChallenge() (Outcome, error) {
	_, err := s.client.Get(true, "/pair", url.Values{
		"devicename": {s.deviceName},
		"phrase":     {"pairchallenge"},
	}, 30*time.Second)
	if err != nil {
		return Failed, errors.Wrap(err, "round 5 pairchallenge over HTTPS")
	}
	return "", nil
}

func (s *Session) unpair() {
	_, _ = s.client.Get(false, "/unpair", url.Values{}, 10*time.Second)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func concatBytes(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func bytesEqual(a, b []byte) bool {
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

func mustHexDecode(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

func hashSHA256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func parseCertHexPEM(pemStr string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block in server certificate")
	}
	return x509.ParseCertificate(block.Bytes)
}
