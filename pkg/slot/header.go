package slot

import (
	"encoding/binary"
	"fmt"

	"github.com/cuemby/sbd/pkg/types"
)

// Magic identifies a disk initialized for this fencing protocol. Version
// is the on-disk format version this package reads and writes.
var Magic = [8]byte{'S', 'B', 'D', 'M', 'B', 'O', 'X', '1'}

const Version byte = 1

const (
	headerMagicOff   = 0
	headerVersionOff = 8
	headerSlotsOff   = 9
	headerWdOff      = 11
	headerLoopOff    = 12
	headerMsgwaitOff = 13
	// HeaderSize is the number of meaningful bytes in the header; the rest
	// of sector 0 is zero padding.
	HeaderSize = 15
)

// Header is the disk's sector-0 record: format identity, slot count, and
// the timeout triple that must match across every disk of one node-set
// (spec invariant I4).
type Header struct {
	Slots           uint16
	TimeoutWatchdog byte
	TimeoutLoop     byte
	TimeoutMsgwait  byte
}

// Encode renders h into a zeroed buffer exactly sectorSize bytes long.
func (h Header) Encode(sectorSize int) []byte {
	buf := make([]byte, sectorSize)
	copy(buf[headerMagicOff:], Magic[:])
	buf[headerVersionOff] = Version
	binary.LittleEndian.PutUint16(buf[headerSlotsOff:], h.Slots)
	buf[headerWdOff] = h.TimeoutWatchdog
	buf[headerLoopOff] = h.TimeoutLoop
	buf[headerMsgwaitOff] = h.TimeoutMsgwait
	return buf
}

// DecodeHeader validates the magic and version (invariant I1) before
// trusting any other field, per spec §4.2 step 1.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header sector too short (%d bytes)", types.ErrBadDisk, len(buf))
	}
	var magic [8]byte
	copy(magic[:], buf[headerMagicOff:headerMagicOff+8])
	if magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic", types.ErrBadDisk)
	}
	if buf[headerVersionOff] != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", types.ErrBadDisk, buf[headerVersionOff])
	}
	return Header{
		Slots:           binary.LittleEndian.Uint16(buf[headerSlotsOff:]),
		TimeoutWatchdog: buf[headerWdOff],
		TimeoutLoop:     buf[headerLoopOff],
		TimeoutMsgwait:  buf[headerMsgwaitOff],
	}, nil
}

// ReadHeader reads and decodes sector 0.
func ReadHeader(dev SectorDevice) (Header, error) {
	buf := dev.NewSector()
	if err := dev.ReadAt(0, buf); err != nil {
		return Header{}, err
	}
	return DecodeHeader(buf)
}

// WriteHeader encodes and writes h to sector 0.
func WriteHeader(dev SectorDevice, h Header) error {
	return dev.WriteAt(0, h.Encode(dev.SectorSize()))
}

// TimeoutsMatch reports whether the timeout triple in h equals the given
// (watchdog, loop, msgwait) triple, implementing spec invariant I4 / the
// Phase-A consistency check.
func (h Header) TimeoutsMatch(watchdog, loop, msgwait int) bool {
	return int(h.TimeoutWatchdog) == watchdog &&
		int(h.TimeoutLoop) == loop &&
		int(h.TimeoutMsgwait) == msgwait
}
