//go:build linux

package bdio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openDevice opens path with O_SYNC|O_RDWR|O_DIRECT, matching the original
// sbd's open(2) flags exactly: writes are durable by the time they return
// and reads bypass the page cache, which is what lets two nodes racing to
// write/read the same mailbox sector observe each other reliably.
func openDevice(path string) (*os.File, int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_DIRECT, 0)
	if err != nil {
		return nil, 0, err
	}
	size, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		_ = unix.Close(fd)
		return nil, 0, fmt.Errorf("BLKSSZGET: %w", err)
	}
	return os.NewFile(uintptr(fd), path), size, nil
}
