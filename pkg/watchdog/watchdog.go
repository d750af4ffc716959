package watchdog

import (
	"fmt"
	"os"
)

// Watchdog is a handle to the kernel watchdog device. The zero value is not
// usable; construct one with Open.
type Watchdog struct {
	f       *os.File
	path    string
	timeout int
}

// Device is the default Linux watchdog character device.
const Device = "/dev/watchdog"

// Open opens path (or Device if empty) and, if setTimeout is true, programs
// timeoutSeconds into the device before returning. The caller must Tickle
// it at least once per timeoutSeconds or the kernel will reboot the host.
func Open(path string, timeoutSeconds int, setTimeout bool) (*Watchdog, error) {
	if path == "" {
		path = Device
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog device %s: %w", path, err)
	}
	w := &Watchdog{f: f, path: path, timeout: timeoutSeconds}
	if setTimeout {
		if err := w.setTimeout(timeoutSeconds); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Tickle resets the device's internal countdown. The inquisitor calls it
// each time a majority of the configured servants have reported liveness
// since the previous tickle (the quorum check lives in package inquisitor,
// not here — this package has no opinion about why it was called).
func (w *Watchdog) Tickle() error {
	if err := w.keepalive(); err != nil {
		return fmt.Errorf("tickle watchdog: %w", err)
	}
	return nil
}

// Close disarms the watchdog with the magic close sequence before
// releasing the file descriptor, so a graceful shutdown (operator-invoked
// exit, not a fencing decision) does not leave the host armed to reboot.
func (w *Watchdog) Close() error {
	if _, err := w.f.Write([]byte("V")); err != nil {
		w.f.Close()
		return fmt.Errorf("disarm watchdog: %w", err)
	}
	return w.f.Close()
}

// Fire deliberately starves the watchdog by closing the descriptor without
// the magic-close byte, letting the kernel's existing countdown expire and
// reboot the host, instead of issuing any destructive syscall itself.
// Servants never hold the watchdog descriptor, so they do not call this;
// a servant self-fences by ceasing to report liveness.
func (w *Watchdog) Fire() error {
	return w.f.Close()
}
