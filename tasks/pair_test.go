package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/pairing"
	"github.com/vireo-stream/hostcore/transport"
)

func TestGeneratePIN_IsFourDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		pin := GeneratePIN()
		assert.Len(t, pin, 4)
		for _, c := range pin {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestPairErrorToken(t *testing.T) {
	cases := []struct {
		outcome     pairing.Outcome
		gameRunning bool
		want        string
	}{
		{pairing.PinWrong, false, "remote_play_client_pair_res_failed_1"},
		{pairing.Failed, true, "remote_play_client_pair_res_failed_2"},
		{pairing.Failed, false, "remote_play_client_pair_res_failed_3"},
		{pairing.AlreadyInProgress, false, "remote_play_client_pair_res_failed_4"},
		{pairing.RazerWrong, false, "remote_play_client_pair_res_failed_5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, pairErrorToken(c.outcome, c.gameRunning))
	}
}

func TestPairErrorClassToken(t *testing.T) {
	token, ok := pairErrorClassToken(&transport.ProtocolError{Code: 400, Message: "bad"})
	require.True(t, ok)
	assert.Equal(t, "remote_play_client_pair_res_failed_6", token)

	token, ok = pairErrorClassToken(&transport.NetworkError{Op: "GET", Err: errors.New("refused")})
	require.True(t, ok)
	assert.Equal(t, "remote_play_client_pair_res_failed_7", token)

	_, ok = pairErrorClassToken(errors.New("something else"))
	assert.False(t, ok)
}
