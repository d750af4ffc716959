package types

import "errors"

// Sentinel error kinds from spec §7. Wrap with fmt.Errorf("...: %w", ...)
// at the call site so errors.Is/As keep working through the stack.
var (
	ErrBadDisk    = errors.New("disk magic or version invalid")
	ErrOpen       = errors.New("failed to open device")
	ErrIO         = errors.New("sector read/write failed")
	ErrNoSlot     = errors.New("no free slot available")
	ErrBadConfig  = errors.New("configuration invalid or inconsistent")
	ErrQuorumLost = errors.New("fewer than a majority of disks available")
	ErrFatal      = errors.New("unrecoverable internal error")
)
