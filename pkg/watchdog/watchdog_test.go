package watchdog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// newFileBacked builds a Watchdog over a regular file so Close/Fire can be
// exercised without a real /dev/watchdog character device. Tickle and
// setTimeout are not covered here: they require the platform ioctls.
func newFileBacked(t *testing.T) (*Watchdog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-watchdog")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		t.Fatalf("open fake device: %v", err)
	}
	return &Watchdog{f: f, path: path, timeout: 5}, path
}

func TestCloseWritesMagicByte(t *testing.T) {
	w, path := newFileBacked(t)
	assert.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "V")
}

func TestFireClosesWithoutMagicByte(t *testing.T) {
	w, path := newFileBacked(t)
	assert.NoError(t, w.Fire())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "V")
}
