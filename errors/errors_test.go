package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := New("connection refused")
	err := Wrap(cause, "poll serverinfo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll serverinfo")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, Is(err, cause))
}

func TestWrapfFormats(t *testing.T) {
	cause := New("timeout")
	err := Wrapf(cause, "probe %s attempt %d", "192.168.1.50", 2)

	assert.Contains(t, err.Error(), "probe 192.168.1.50 attempt 2")
	assert.True(t, Is(err, cause))
}

func TestIsDistinguishesErrors(t *testing.T) {
	pinWrong := New("pin mismatch")
	certBad := New("certificate parse failed")

	wrapped := Wrap(pinWrong, "round 3")
	assert.True(t, Is(wrapped, pinWrong))
	assert.False(t, Is(wrapped, certBad))
	assert.True(t, IsAny(wrapped, certBad, pinWrong))
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return "status error" }

func TestAsUnwrapsTypedErrors(t *testing.T) {
	inner := &statusError{code: 401}
	err := Wrap(inner, "https serverinfo")

	var se *statusError
	require.True(t, As(err, &se))
	assert.Equal(t, 401, se.code)
}

func TestHintsCarryUserVisibleTokens(t *testing.T) {
	err := WithHint(New("pairing rejected"), "remote_play_client_pair_res_failed_1")
	err = Wrap(err, "pair task")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "remote_play_client_pair_res_failed_1", hints[0])
	assert.Equal(t, "remote_play_client_pair_res_failed_1", FlattenHints(err))
}

func TestHintfFormats(t *testing.T) {
	err := WithHintf(New("quit rejected"), "host reports game %d still running", 17)

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "host reports game 17 still running", hints[0])
}

func TestStackTraceAvailable(t *testing.T) {
	err := New("save failed")
	assert.NotNil(t, GetReportableStackTrace(err))
	assert.NotNil(t, GetStack(Wrap(err, "flush")))

	// %+v formatting includes the capture site.
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.False(t, Is(nil, New("x")))
}
