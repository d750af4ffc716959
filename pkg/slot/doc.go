/*
Package slot implements the on-disk mailbox protocol the SBD fencing agent
reads and writes: the header sector, the per-node mailbox sectors, and the
allocation/read/write/message operations built on top of them.

# Disk layout

	┌─────────────┬─────────────┬─────────────┬───┬─────────────┐
	│  sector 0    │  sector 1    │  sector 2    │ … │  sector N    │
	│   Header     │  Mailbox 0   │  Mailbox 1   │   │ Mailbox N-1  │
	└─────────────┴─────────────┴─────────────┴───┴─────────────┘

Header (bytes, little-endian multi-byte fields):

	0..7    magic      8-byte ASCII identifier
	8       version    format version
	9..10   slots      slot count N (uint16)
	11      wd_timeout watchdog timeout, seconds
	12      loop       loop timeout, seconds
	13      msgwait    msgwait timeout, seconds
	14      —          reserved, zero

Mailbox (one per slot, at sector index+1):

	0..63   name   UTF-8, NUL-padded, the owning node's name
	64      cmd    one byte: 0=clear, 1=TEST, 2=RESET, 3=OFF, 4=EXIT
	65..128 from   UTF-8, NUL-padded, the sender that wrote cmd

All remaining bytes in both sectors are zero-padded out to the device's
logical sector size.

# Allocation

Allocate is idempotent: calling it twice with the same name returns the
same index and only mutates the disk on the first call. It scans for an
existing slot owned by name before claiming the lowest-indexed empty
(all-zero name) slot — see Allocate for the exact algorithm from spec §4.2.
*/
package slot
