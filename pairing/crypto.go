package pairing

import (
	"crypto/aes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"

	"github.com/vireo-stream/hostcore/errors"
)

// hashFunc returns the digest function to use for this handshake:
// SHA-256 when the server's major version is >= 7, else
// SHA-1 (legacy GFE hosts).
func hashFunc(major7OrAbove bool) func([]byte) []byte {
	if major7OrAbove {
		return func(b []byte) []byte { sum := sha256.Sum256(b); return sum[:] }
	}
	return func(b []byte) []byte { sum := sha1.Sum(b); return sum[:] }
}

func hashLen(major7OrAbove bool) int {
	if major7OrAbove {
		return sha256.Size
	}
	return sha1.Size
}

// aesECBEncrypt encrypts block-aligned plaintext under AES-128-ECB with no
// padding. Every round that uses it in the core handshake works in fixed
// 16-byte units already, so callers must zero-pad to a block boundary
// themselves (see zeroPadTo).
func aesECBEncrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "create AES cipher")
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, errors.Newf("plaintext length %d not block-aligned", len(plaintext))
	}

	out := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], plaintext[i:i+aes.BlockSize])
	}
	return out, nil
}

func aesECBDecrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "create AES cipher")
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.Newf("ciphertext length %d not block-aligned", len(ciphertext))
	}

	out := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], ciphertext[i:i+aes.BlockSize])
	}
	return out, nil
}

// zeroPadTo returns b fixed to exactly size bytes: zero-padded when
// short, truncated when long. The handshake uses it both to cut a digest
// down to an AES-128 key and to pad a SHA-1 digest out to 32 bytes.
func zeroPadTo(b []byte, size int) []byte {
	if len(b) >= size {
		return b[:size]
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// pkcs7Pad pads b to a multiple of blockSize using PKCS#7, used only by
// the federated-identity PIN cipher; the
// core handshake rounds stay padding-free.
func pkcs7Pad(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(append([]byte{}, b...), padding...)
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("cannot unpad empty input")
	}
	padLen := int(b[len(b)-1])
	if padLen == 0 || padLen > len(b) {
		return nil, errors.New("invalid PKCS7 padding")
	}
	return b[:len(b)-padLen], nil
}

// federatedAESKey derives the two-stage key the federated-identity PIN
// cipher uses: first MD5 of the secret, then the handshake hash of that
// MD5 digest.
func federatedAESKey(secret []byte, hash func([]byte) []byte) []byte {
	sum := md5.Sum(secret)
	return zeroPadTo(hash(sum[:]), 16)[:16]
}
