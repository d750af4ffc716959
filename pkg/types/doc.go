/*
Package types defines the core data structures shared across the SBD
fencing agent: the node configuration, the command codes exchanged through
on-disk mailboxes, and the small in-memory bookkeeping types the inquisitor
uses to track its servant fleet.

# Core Types

Configuration:
  - Config: everything parsed from CLI flags / config file (disks, local
    node name, timeout triple, watchdog policy, daemonize flag)

Protocol:
  - Command: the one-byte mailbox command code (Clear, Test, Reset, Off, Exit)
  - ServantMode: whether a spawned servant only prepares its slot or runs
    the full monitoring loop

Bookkeeping:
  - ServantRecord: one configured disk's device path and current child pid

The per-tick report set the inquisitor clears on each watchdog tickle is
not a type here; it is kept inside package inquisitor.

# Design Patterns

Command follows the typed-constant enumeration pattern used throughout this
codebase (small value type, named constants, a String method for logging).
*/
package types
