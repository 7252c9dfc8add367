// Package identity generates and persists the client's long-lived RSA
// identity: a 2048-bit key pair and a self-signed X.509 certificate used
// for mutual TLS against paired hosts.
package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/logger"
)

const (
	keyBits     = 2048
	commonName  = "GameStream Client"
	validYears  = 20
	crlfToken   = "$CR$"
	pemHint     = "identity PEM could not be parsed; delete the persisted credential file and restart to regenerate"
)

// Store holds the process-wide client identity. It is constructed once at
// startup and is safe for concurrent read access afterward; there is no
// mutable state once New returns.
type Store struct {
	mu sync.RWMutex

	certPEM []byte
	keyPEM  []byte
	cert    *x509.Certificate
	key     *rsa.PrivateKey
	uid     string
}

// Persistence is the narrow boundary the identity store needs from whatever
// backs the persisted identity (FilePersistence's own identity.dat, not
// general.json): load the two encoded PEM blobs, or save freshly
// generated ones. Newlines are replaced with crlfToken before Save and
// restored before Load's caller sees them, matching the INI-unsafe
// persisted layout described in the host list format.
type Persistence interface {
	LoadIdentity() (certToken, keyToken string, ok bool, err error)
	SaveIdentity(certToken, keyToken string) error
}

// New loads a persisted identity, or generates and persists one if none
// exists. A failure to parse a previously-persisted, non-empty identity is
// fatal per the core's error taxonomy — the caller should log and exit.
func New(store Persistence, log *zap.SugaredLogger) (*Store, error) {
	log = logger.WithSymbol(log, "ident")
	certToken, keyToken, ok, err := store.LoadIdentity()
	if err != nil {
		return nil, errors.Wrap(err, "load persisted identity")
	}

	if ok {
		s, err := fromPEM(detokenize(certToken), detokenize(keyToken))
		if err != nil {
			return nil, errors.WithHint(errors.Wrap(err, "parse persisted identity"), pemHint)
		}
		log.Infow("loaded client identity", "unique_id", s.UniqueID())
		return s, nil
	}

	s, err := generate()
	if err != nil {
		return nil, errors.Wrap(err, "generate client identity")
	}

	if err := store.SaveIdentity(tokenize(string(s.certPEM)), tokenize(string(s.keyPEM))); err != nil {
		return nil, errors.Wrap(err, "persist generated identity")
	}

	log.Infow("generated new client identity", "unique_id", s.UniqueID())
	return s, nil
}

func generate() (*Store, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, errors.Wrap(err, "generate RSA key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, errors.Wrap(err, "generate certificate serial")
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(validYears, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		IsCA:         true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, errors.Wrap(err, "create self-signed certificate")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse generated certificate")
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	return &Store{
		certPEM: certPEM,
		keyPEM:  keyPEM,
		cert:    cert,
		key:     key,
		uid:     uniqueID(&key.PublicKey),
	}, nil
}

func fromPEM(certPEM, keyPEM string) (*Store, error) {
	certBlock, _ := pem.Decode([]byte(certPEM))
	if certBlock == nil {
		return nil, errors.New("no PEM block found in certificate")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse certificate")
	}

	keyBlock, _ := pem.Decode([]byte(keyPEM))
	if keyBlock == nil {
		return nil, errors.New("no PEM block found in private key")
	}
	key, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	return &Store{
		certPEM: []byte(certPEM),
		keyPEM:  []byte(keyPEM),
		cert:    cert,
		key:     key,
		uid:     uniqueID(&key.PublicKey),
	}, nil
}

func uniqueID(pub *rsa.PublicKey) string {
	sum := sha256.Sum256(pub.N.Bytes())
	return fmt.Sprintf("%x", sum[:8])
}

// CertPEM returns the client certificate in PEM form.
func (s *Store) CertPEM() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.certPEM
}

// KeyPEM returns the client private key in PEM form.
func (s *Store) KeyPEM() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyPEM
}

// Certificate returns the parsed client certificate.
func (s *Store) Certificate() *x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cert
}

// PrivateKey returns the client's RSA private key, used to sign the pairing
// secret in Round 4 of the handshake.
func (s *Store) PrivateKey() *rsa.PrivateKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// UniqueID returns a cached, stable identifier derived from the public key.
func (s *Store) UniqueID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

func tokenize(pemStr string) string {
	out := make([]byte, 0, len(pemStr))
	for i := 0; i < len(pemStr); i++ {
		if pemStr[i] == '\n' {
			out = append(out, crlfToken...)
			continue
		}
		out = append(out, pemStr[i])
	}
	return string(out)
}

func detokenize(token string) string {
	out := make([]byte, 0, len(token))
	for i := 0; i < len(token); {
		if i+len(crlfToken) <= len(token) && token[i:i+len(crlfToken)] == crlfToken {
			out = append(out, '\n')
			i += len(crlfToken)
			continue
		}
		out = append(out, token[i])
		i++
	}
	return string(out)
}
