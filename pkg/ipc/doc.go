// Package ipc defines the event wire format passed between an inquisitor
// and its servant children over an inherited pipe.
//
// The original implementation carried a servant's liveness, exit-request
// and test reports (alongside the operator's "restart servants" request)
// as POSIX real-time signals, relying on si_pid to
// identify which child sent one. Go's os/signal delivery does neither: it
// does not preserve the sender's pid, and it coalesces multiple pending
// instances of the same signal number into one wakeup. For a liveness
// quorum, losing either property is a correctness bug, not a style
// preference — a dropped coalesced liveness notification looks identical
// to a dead servant. Each servant is therefore a real child process that
// writes one newline-delimited JSON Event per line to its inherited
// write end of a pipe; the inquisitor's per-child reader goroutine tags
// every event with that child's device path before handing it to the
// event loop, so no identity or event is ever lost to coalescing.
package ipc
