// Package watchdog arms and tickles the kernel watchdog device that backs
// the inquisitor's final line of defense: if nothing tickles it within its
// programmed timeout, the kernel itself forces a reboot, regardless of
// whether userspace is still alive to decide that it should.
package watchdog
