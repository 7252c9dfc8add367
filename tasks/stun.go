package tasks

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"time"

	"github.com/vireo-stream/hostcore/errors"
)

const (
	stunMagicCookie    = 0x2112A442
	stunBindingReqType = 0x0001
	stunXorMappedAddr  = 0x0020
	stunMappedAddr     = 0x0001
	stunTimeout        = 3 * time.Second
)

// stunLookupPublicAddress performs a minimal RFC 5389 STUN binding
// request against server, returning the public IPv4 address the server
// observed this request arrive from. The wire format is one fixed
// 20-byte header plus a couple of address attributes, small enough to
// hand-roll.
func stunLookupPublicAddress(server string) (string, error) {
	conn, err := net.DialTimeout("udp", server, stunTimeout)
	if err != nil {
		return "", errors.Wrap(err, "dial STUN server")
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(stunTimeout))

	txID := make([]byte, 12)
	if _, err := rand.Read(txID); err != nil {
		return "", errors.Wrap(err, "generate STUN transaction ID")
	}

	req := make([]byte, 20)
	binary.BigEndian.PutUint16(req[0:2], stunBindingReqType)
	binary.BigEndian.PutUint16(req[2:4], 0)
	binary.BigEndian.PutUint32(req[4:8], stunMagicCookie)
	copy(req[8:20], txID)

	if _, err := conn.Write(req); err != nil {
		return "", errors.Wrap(err, "send STUN binding request")
	}

	resp := make([]byte, 512)
	n, err := conn.Read(resp)
	if err != nil {
		return "", errors.Wrap(err, "read STUN response")
	}
	return parseStunResponse(resp[:n], txID)
}

func parseStunResponse(resp, txID []byte) (string, error) {
	if len(resp) < 20 {
		return "", errors.New("STUN response too short")
	}
	if !bytesEqual(resp[8:20], txID) {
		return "", errors.New("STUN transaction ID mismatch")
	}

	attrs := resp[20:]
	for len(attrs) >= 4 {
		attrType := binary.BigEndian.Uint16(attrs[0:2])
		attrLen := binary.BigEndian.Uint16(attrs[2:4])
		if int(attrLen)+4 > len(attrs) {
			break
		}
		value := attrs[4 : 4+attrLen]

		switch attrType {
		case stunXorMappedAddr:
			if ip, ok := decodeXorMappedAddress(value); ok {
				return ip, nil
			}
		case stunMappedAddr:
			if ip, ok := decodeMappedAddress(value); ok {
				return ip, nil
			}
		}

		padded := (int(attrLen) + 3) &^ 3
		attrs = attrs[4+padded:]
	}
	return "", errors.New("STUN response carried no mapped address attribute")
}

func decodeMappedAddress(value []byte) (string, bool) {
	if len(value) < 8 || value[1] != 0x01 {
		return "", false
	}
	return net.IP(value[4:8]).String(), true
}

func decodeXorMappedAddress(value []byte) (string, bool) {
	if len(value) < 8 || value[1] != 0x01 {
		return "", false
	}
	cookie := make([]byte, 4)
	binary.BigEndian.PutUint32(cookie, stunMagicCookie)

	xored := make([]byte, 4)
	for i := 0; i < 4; i++ {
		xored[i] = value[4+i] ^ cookie[i]
	}
	return net.IP(xored).String(), true
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
