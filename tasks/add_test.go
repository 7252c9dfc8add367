package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRFC1918(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.50", true},
		{"10.0.0.5", true},
		{"172.16.5.5", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"8.8.8.8", false},
		{"2001:db8::1", false},
		{"not-an-ip", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isRFC1918(c.ip), c.ip)
	}
}
