package pairing

import (
	"encoding/hex"

	"github.com/vireo-stream/hostcore/errors"
)

// FederatedSecretPackage is what the external identity service hands back
// for a (pairToken, externalUUID) lookup: a shared secret the host also
// derives independently, used to wrap the PIN so the host's user never
// has to type it in.
type FederatedSecretPackage struct {
	Secret       []byte
	PairToken    string
	ExternalUUID string
	PincodeUUID  string
}

// PairFederated runs the handshake using a PIN the caller generated (the
// same way Pair's manual flow would) but wrapped and pre-delivered via the
// federated identity service. Returns
// RazerWrong if pkg is incomplete (the federated preconditions failed
// upstream of pairing itself).
func (s *Session) PairFederated(pin string, pkg FederatedSecretPackage) (Result, error) {
	if len(pkg.Secret) == 0 || pkg.PairToken == "" || pkg.ExternalUUID == "" {
		return Result{Outcome: RazerWrong}, errors.New("incomplete federated secret package")
	}

	hash := hashFunc(s.major7)
	key := federatedAESKey(pkg.Secret, hash)
	padded := pkcs7Pad([]byte(pin), 16)
	cipher, err := aesECBEncrypt(key, padded)
	if err != nil {
		return Result{Outcome: Failed}, errors.Wrap(err, "wrap PIN for federated pairing")
	}

	return s.pair(pin, &federatedParams{
		pairToken:    pkg.PairToken,
		externalUUID: pkg.ExternalUUID,
		pincodeUUID:  pkg.PincodeUUID,
		wrappedPIN:   hex.EncodeToString(cipher),
	})
}
