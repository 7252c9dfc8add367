package identity

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vireo-stream/hostcore/errors"
)

const identityFileName = "identity.dat"

// FilePersistence is a simple two-line flat-file Persistence
// implementation, the identity store's own dedicated file rather than a
// key inside the UI-owned general.json settings blob — the identity's
// private key must never round-trip through the settings HTTP endpoint.
type FilePersistence struct {
	path string
}

// NewFilePersistence roots the identity file under dataDir.
func NewFilePersistence(dataDir string) *FilePersistence {
	return &FilePersistence{path: filepath.Join(dataDir, identityFileName)}
}

// LoadIdentity reads the two tokenized PEM lines, or reports ok=false if
// the file doesn't exist yet.
func (p *FilePersistence) LoadIdentity() (certToken, keyToken string, ok bool, err error) {
	raw, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, errors.Wrapf(err, "read %s", p.path)
	}

	lines := strings.SplitN(string(raw), "\n", 2)
	if len(lines) != 2 {
		return "", "", false, errors.Newf("malformed identity file %s", p.path)
	}
	cert := strings.TrimSpace(lines[0])
	key := strings.TrimSpace(lines[1])
	if cert == "" || key == "" {
		return "", "", false, errors.Newf("malformed identity file %s", p.path)
	}
	return cert, key, true, nil
}

// SaveIdentity writes the two tokenized PEM lines, creating the data
// directory if needed.
func (p *FilePersistence) SaveIdentity(certToken, keyToken string) error {
	if dir := filepath.Dir(p.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrapf(err, "create identity dir %s", dir)
		}
	}
	content := certToken + "\n" + keyToken + "\n"
	if err := os.WriteFile(p.path, []byte(content), 0o600); err != nil {
		return errors.Wrapf(err, "write %s", p.path)
	}
	return nil
}
