//go:build !linux

package watchdog

import "fmt"

func (w *Watchdog) setTimeout(seconds int) error {
	return fmt.Errorf("watchdog ioctls are not supported on this platform")
}

func (w *Watchdog) keepalive() error {
	return fmt.Errorf("watchdog ioctls are not supported on this platform")
}
