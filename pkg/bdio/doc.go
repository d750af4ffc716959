// Package bdio provides synchronous, direct, sector-aligned block device
// I/O: the foundation the slot protocol builds on.
//
// A Device is opened with semantics that guarantee a write has reached the
// disk by the time the call returns, and that a read is never satisfied
// from a page cache — both requirements for a fencing mailbox, where two
// nodes race to observe each other's writes. All I/O is sector-sized and
// sector-aligned; partial reads or writes are reported as errors rather
// than silently retried.
package bdio
