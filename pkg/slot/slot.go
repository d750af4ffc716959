package slot

import (
	"fmt"
	"time"

	"github.com/cuemby/sbd/pkg/types"
)

// Info describes one allocated or empty slot, as returned by List.
type Info struct {
	Index int
	Name  string
	Cmd   types.Command
	From  string
}

// Delivery is the outcome of sending a command to one disk — the unit
// Ping and Send report per configured disk, resolving the spec's open
// question about per-disk message visibility (SPEC_FULL.md §9).
type Delivery struct {
	Disk  string
	Slot  int
	Acked bool
	Err   error
}

// CreateHeader formats a fresh disk: writes the header sector and zeroes
// every mailbox sector for slots 0..n-1.
func CreateHeader(dev SectorDevice, slots int, watchdog, loop, msgwait int) error {
	h := Header{
		Slots:           uint16(slots),
		TimeoutWatchdog: byte(watchdog),
		TimeoutLoop:     byte(loop),
		TimeoutMsgwait:  byte(msgwait),
	}
	if err := WriteHeader(dev, h); err != nil {
		return err
	}
	empty := Mailbox{}
	for i := 0; i < slots; i++ {
		if err := WriteMailbox(dev, i, empty); err != nil {
			return fmt.Errorf("zero slot %d: %w", i, err)
		}
	}
	return nil
}

// Allocate implements spec §4.2's idempotent allocation algorithm:
//  1. read and validate the header;
//  2. scan slots [0,N) — if one is already owned by name, return it;
//  3. otherwise claim the lowest-indexed empty (all-zero name) slot;
//  4. if none is empty, fail with ErrNoSlot.
//
// Calling Allocate twice with the same name is a no-op the second time:
// the disk is only written to on the call that actually claims a slot.
func Allocate(dev SectorDevice, name string) (int, error) {
	h, err := ReadHeader(dev)
	if err != nil {
		return 0, err
	}
	firstEmpty := -1
	for i := 0; i < int(h.Slots); i++ {
		m, err := ReadMailbox(dev, i)
		if err != nil {
			return 0, fmt.Errorf("read slot %d: %w", i, err)
		}
		if m.Name == name {
			return i, nil
		}
		if m.Empty() && firstEmpty == -1 {
			firstEmpty = i
		}
	}
	if firstEmpty == -1 {
		return 0, fmt.Errorf("%w: all %d slots claimed", types.ErrNoSlot, h.Slots)
	}
	m := Mailbox{Name: name, Cmd: types.CmdClear}
	if err := WriteMailbox(dev, firstEmpty, m); err != nil {
		return 0, fmt.Errorf("claim slot %d: %w", firstEmpty, err)
	}
	return firstEmpty, nil
}

// Find returns the slot index owned by name, or ErrNoSlot if no slot is
// allocated to it.
func Find(dev SectorDevice, name string) (int, error) {
	h, err := ReadHeader(dev)
	if err != nil {
		return 0, err
	}
	for i := 0; i < int(h.Slots); i++ {
		m, err := ReadMailbox(dev, i)
		if err != nil {
			return 0, fmt.Errorf("read slot %d: %w", i, err)
		}
		if m.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q has no slot on this disk", types.ErrNoSlot, name)
}

// List enumerates every slot on the disk, allocated or not.
func List(dev SectorDevice) ([]Info, error) {
	h, err := ReadHeader(dev)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, h.Slots)
	for i := 0; i < int(h.Slots); i++ {
		m, err := ReadMailbox(dev, i)
		if err != nil {
			return nil, fmt.Errorf("read slot %d: %w", i, err)
		}
		out = append(out, Info{Index: i, Name: m.Name, Cmd: m.Cmd, From: m.From})
	}
	return out, nil
}

// Send writes cmd into target's mailbox, from sender, then waits out
// msgwait before the caller assumes delivery (spec §4.2). Delivery here
// means the sector write reached this disk, not that the recipient
// acted on it or cleared its slot: RESET/OFF recipients never clear their
// slot (a servant executing RESET/OFF blocks forever in do_reset/do_off),
// so polling for a clear would make every fencing command time out even
// on a correct delivery. This mirrors the original messenger(),
// whose delivery success is "the sector write succeeded," not an echo.
func Send(dev SectorDevice, target, sender string, cmd types.Command, msgwait time.Duration) Delivery {
	idx, err := Find(dev, target)
	if err != nil {
		return Delivery{Err: err}
	}
	d := Delivery{Slot: idx}
	if err := WriteMailbox(dev, idx, Mailbox{Name: target, Cmd: cmd, From: sender}); err != nil {
		d.Err = fmt.Errorf("write slot %d: %w", idx, err)
		return d
	}
	time.Sleep(msgwait)
	d.Acked = true
	return d
}

// Ping sends a TEST command and polls until the recipient echoes by
// clearing its own slot or msgwait elapses — a live servant clears a TEST
// command on its own (servant.go's loop), so, unlike Send,
// waiting for the echo is the correct way to confirm the node is alive.
func Ping(dev SectorDevice, target, sender string, msgwait time.Duration) Delivery {
	idx, err := Find(dev, target)
	if err != nil {
		return Delivery{Err: err}
	}
	d := Delivery{Slot: idx}
	if err := WriteMailbox(dev, idx, Mailbox{Name: target, Cmd: types.CmdTest, From: sender}); err != nil {
		d.Err = fmt.Errorf("write slot %d: %w", idx, err)
		return d
	}
	deadline := time.Now().Add(msgwait)
	for time.Now().Before(deadline) {
		m, err := ReadMailbox(dev, idx)
		if err != nil {
			d.Err = fmt.Errorf("poll slot %d: %w", idx, err)
			return d
		}
		if m.Cmd == types.CmdClear {
			d.Acked = true
			return d
		}
		time.Sleep(200 * time.Millisecond)
	}
	d.Err = fmt.Errorf("%w: %q did not clear slot %d within %s", types.ErrIO, target, idx, msgwait)
	return d
}

// Dump reads back the header for the `sbd dump` operation.
func Dump(dev SectorDevice) (Header, error) {
	return ReadHeader(dev)
}
