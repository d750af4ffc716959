//go:build !unix

package inquisitor

import "fmt"

// DaemonizeEnv is unused on non-unix platforms; kept for API symmetry.
const DaemonizeEnv = "SBD_DAEMONIZED"

// Daemonize is not supported outside unix-like platforms: there is no
// setsid()/session-detach equivalent to re-exec into.
func Daemonize() error {
	return fmt.Errorf("daemonize: not supported on this platform")
}
