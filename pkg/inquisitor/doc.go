/*
Package inquisitor implements INQ, the long-lived supervisor: it spawns
and respawns servants, evaluates quorum, tickles the watchdog, and
orchestrates shutdown.

# Phases

Phase A (Validate) forks every configured disk's servant in prepare-only
mode, waits for all of them, and requires a strict majority to exit 0 with
identical timeout triples before anything is armed.

Phase B (Arm) opens and programs the watchdog device.

Phase C (Watch) forks every disk's servant in full-job mode and runs the
event loop: each servant's liveness/test/exit/fault events arrive over its
own inherited pipe, fanned into one channel by per-child reader
goroutines (see package ipc). The watchdog is tickled only once a report
set reaches the configured quorum size, then cleared.

Every field this package would otherwise keep in package-level globals —
the servant records, the report set, the exiting flag — is bundled into
one *Inquisitor built at startup and threaded explicitly. Timeout
inconsistency is reported as an error from Validate, not kept as a flag.
*/
package inquisitor
