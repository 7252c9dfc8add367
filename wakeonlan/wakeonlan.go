// Package wakeonlan sends IEEE 802.3 magic packets over UDP.
package wakeonlan

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/vireo-stream/hostcore/errors"
)

// MagicPacket builds the 6×0xFF + 16×MAC payload for the given hex MAC
// address, delimited by colons, hyphens or dots.
func MagicPacket(mac string) ([]byte, error) {
	hw, err := parseMAC(mac)
	if err != nil {
		return nil, err
	}

	packet := make([]byte, 0, 6+16*len(hw))
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

func parseMAC(mac string) ([]byte, error) {
	clean := strings.NewReplacer(":", "", "-", "", ".", "").Replace(mac)
	if len(clean) != 12 {
		return nil, errors.Newf("invalid MAC address %q", mac)
	}
	hw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.Wrapf(err, "decode MAC %q", mac)
	}
	return hw, nil
}

// Send transmits a magic packet for mac to addr:port over UDP. Failures to
// reach one address are non-fatal to the caller's broadcast fan-out, so
// Send returns the error directly rather than swallowing it; the caller
// decides whether one failed target matters.
func Send(mac, addr string, port int) error {
	packet, err := MagicPacket(mac)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return errors.Wrapf(err, "dial %s:%d", addr, port)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return errors.Wrapf(err, "write magic packet to %s:%d", addr, port)
	}
	return nil
}
