package tasks

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResponse(txID []byte, attrType uint16, value []byte) []byte {
	padded := (len(value) + 3) &^ 3
	attrs := make([]byte, 4+padded)
	binary.BigEndian.PutUint16(attrs[0:2], attrType)
	binary.BigEndian.PutUint16(attrs[2:4], uint16(len(value)))
	copy(attrs[4:], value)

	resp := make([]byte, 20+len(attrs))
	binary.BigEndian.PutUint16(resp[0:2], 0x0101) // binding success response
	binary.BigEndian.PutUint16(resp[2:4], uint16(len(attrs)))
	binary.BigEndian.PutUint32(resp[4:8], stunMagicCookie)
	copy(resp[8:20], txID)
	copy(resp[20:], attrs)
	return resp
}

func TestParseStunResponse_XorMappedAddress(t *testing.T) {
	txID := []byte("123456789012")
	ip := net.ParseIP("203.0.113.42").To4()

	cookie := make([]byte, 4)
	binary.BigEndian.PutUint32(cookie, stunMagicCookie)
	xored := make([]byte, 4)
	for i := 0; i < 4; i++ {
		xored[i] = ip[i] ^ cookie[i]
	}

	value := append([]byte{0x00, 0x01, 0x00, 0x00}, xored...)
	resp := buildResponse(txID, stunXorMappedAddr, value)

	got, err := parseStunResponse(resp, txID)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.42", got)
}

func TestParseStunResponse_MappedAddress(t *testing.T) {
	txID := []byte("abcdefghijkl")
	ip := net.ParseIP("198.51.100.7").To4()

	value := append([]byte{0x00, 0x01, 0x00, 0x00}, ip...)
	resp := buildResponse(txID, stunMappedAddr, value)

	got, err := parseStunResponse(resp, txID)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", got)
}

func TestParseStunResponse_TransactionIDMismatch(t *testing.T) {
	txID := []byte("123456789012")
	other := []byte("zzzzzzzzzzzz")
	resp := buildResponse(txID, stunMappedAddr, []byte{0x00, 0x01, 0x00, 0x00, 1, 2, 3, 4})

	_, err := parseStunResponse(resp, other)
	assert.Error(t, err)
}

func TestParseStunResponse_NoMappedAddressAttribute(t *testing.T) {
	txID := []byte("123456789012")
	resp := make([]byte, 20)
	binary.BigEndian.PutUint32(resp[4:8], stunMagicCookie)
	copy(resp[8:20], txID)

	_, err := parseStunResponse(resp, txID)
	assert.Error(t, err)
}

func TestParseStunResponse_TooShort(t *testing.T) {
	_, err := parseStunResponse([]byte{1, 2, 3}, []byte("123456789012"))
	assert.Error(t, err)
}
