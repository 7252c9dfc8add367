package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUUID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"550E8400-E29B-41D4-A716-446655440000", true},
		{"not-a-uuid", false},
		{"", false},
		{"550e8400e29b41d4a716446655440000", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, validUUID(c.in), c.in)
	}
}
