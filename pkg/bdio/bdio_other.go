//go:build !linux

package bdio

import (
	"fmt"
	"os"
	"runtime"
)

// openDevice has no portable equivalent of O_DIRECT + BLKSSZGET outside
// Linux; the SBD fencing mechanism is Linux-watchdog-specific anyway (see
// the watchdog package), so other platforms fail explicitly rather than
// silently falling back to buffered I/O that would break the mailbox
// protocol's durability guarantees.
func openDevice(path string) (*os.File, int, error) {
	return nil, 0, fmt.Errorf("block device I/O is not supported on %s", runtime.GOOS)
}
