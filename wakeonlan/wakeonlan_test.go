package wakeonlan

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicPacket_Layout(t *testing.T) {
	packet, err := MagicPacket("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	require.Len(t, packet, 6+16*6)

	for i := 0; i < 6; i++ {
		assert.EqualValues(t, 0xFF, packet[i])
	}
	mac := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	for rep := 0; rep < 16; rep++ {
		assert.Equal(t, mac, packet[6+rep*6:6+(rep+1)*6], "repetition %d", rep)
	}
}

func TestMagicPacket_AcceptsHyphensAndDots(t *testing.T) {
	a, err := MagicPacket("aa-bb-cc-dd-ee-ff")
	require.NoError(t, err)
	b, err := MagicPacket("aabb.ccdd.eeff")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMagicPacket_RejectsBadMACs(t *testing.T) {
	for _, mac := range []string{"", "aa:bb", "zz:zz:zz:zz:zz:zz", "aa:bb:cc:dd:ee:ff:00"} {
		_, err := MagicPacket(mac)
		assert.Error(t, err, mac)
	}
}

func TestSend_DeliversPacketOverUDP(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	require.NoError(t, Send("aa:bb:cc:dd:ee:ff", "127.0.0.1", port))

	buf := make([]byte, 256)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, 102, n)
}
