package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersistence_RoundTrip(t *testing.T) {
	p := NewFilePersistence(t.TempDir())

	_, _, ok, err := p.LoadIdentity()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.SaveIdentity("cert-token", "key-token"))

	cert, key, ok, err := p.LoadIdentity()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cert-token", cert)
	assert.Equal(t, "key-token", key)
}

func TestFilePersistence_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePersistence(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, identityFileName), []byte("only-one-line"), 0o600))

	_, _, _, err := p.LoadIdentity()
	assert.Error(t, err)
}
