package slot

import (
	"bytes"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/types"
)

// SectorDevice is the sector I/O contract slot operations are written
// against — satisfied by a real bdio.Device or bdio.MemDevice in tests.
type SectorDevice = bdio.SectorDevice

// NameLen is the fixed, NUL-padded width of both the name and from fields.
const NameLen = 64

const (
	mboxNameOff = 0
	mboxCmdOff  = NameLen
	mboxFromOff = NameLen + 1
	// MailboxSize is the number of meaningful bytes in a mailbox sector;
	// the rest is zero padding.
	MailboxSize = NameLen + 1 + NameLen
)

// Mailbox is one node's slot: the owning name, the pending command, and
// who sent it.
type Mailbox struct {
	Name string
	Cmd  types.Command
	From string
}

// Empty reports whether the slot has never been allocated (all-zero name).
func (m Mailbox) Empty() bool {
	return m.Name == ""
}

func encodeFixed(s string) [NameLen]byte {
	var out [NameLen]byte
	copy(out[:], s)
	return out
}

func decodeFixed(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}

// Encode renders m into a zeroed buffer exactly sectorSize bytes long.
func (m Mailbox) Encode(sectorSize int) []byte {
	buf := make([]byte, sectorSize)
	name := encodeFixed(m.Name)
	from := encodeFixed(m.From)
	copy(buf[mboxNameOff:], name[:])
	buf[mboxCmdOff] = byte(m.Cmd)
	copy(buf[mboxFromOff:], from[:])
	return buf
}

// DecodeMailbox parses a mailbox sector. It never fails: an unrecognized
// command byte decodes to whatever value was on disk and is rejected by
// the caller's dispatch logic (spec §4.4 step 3, "unknown message").
func DecodeMailbox(buf []byte) Mailbox {
	if len(buf) < MailboxSize {
		return Mailbox{}
	}
	return Mailbox{
		Name: decodeFixed(buf[mboxNameOff : mboxNameOff+NameLen]),
		Cmd:  types.Command(buf[mboxCmdOff]),
		From: decodeFixed(buf[mboxFromOff : mboxFromOff+NameLen]),
	}
}

// sector returns the on-disk sector index for mailbox slot i (sector 0 is
// the header, so slot i lives at sector i+1).
func sector(i int) int64 { return int64(i) + 1 }

// ReadMailbox reads and decodes the mailbox at slot index i.
func ReadMailbox(dev SectorDevice, i int) (Mailbox, error) {
	buf := dev.NewSector()
	if err := dev.ReadAt(sector(i), buf); err != nil {
		return Mailbox{}, err
	}
	return DecodeMailbox(buf), nil
}

// WriteMailbox encodes and writes m to slot index i as one atomic sector
// write (invariant I3).
func WriteMailbox(dev SectorDevice, i int, m Mailbox) error {
	return dev.WriteAt(sector(i), m.Encode(dev.SectorSize()))
}

// ClearMailbox resets slot i's command and sender while preserving the
// owning name (invariant I2: name is immutable once allocated).
func ClearMailbox(dev SectorDevice, i int) error {
	m, err := ReadMailbox(dev, i)
	if err != nil {
		return err
	}
	m.Cmd = types.CmdClear
	m.From = ""
	return WriteMailbox(dev, i, m)
}
