package bdio

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/cuemby/sbd/pkg/types"
)

// directIOAlign is the buffer alignment O_DIRECT requires on Linux (a
// conservative value covering every common block size; the true
// requirement is the device's logical block size, which is always a
// divisor of this). MemDevice has no such requirement and ignores it.
const directIOAlign = 4096

// SectorDevice is the sector-aligned I/O contract both a real Device and
// the in-memory test double (see memdevice.go) satisfy. The slot package
// is written against this interface so its logic never depends on a real
// disk being present.
type SectorDevice interface {
	SectorSize() int
	NewSector() []byte
	ReadAt(sector int64, buf []byte) error
	WriteAt(sector int64, buf []byte) error
	Close() error
}

// Device is a block device opened with synchronous, direct, unbuffered
// read/write semantics.
type Device struct {
	path       string
	file       *os.File
	sectorSize int
}

// Open opens path for sector-aligned I/O. Sector size is discovered from
// the device itself; a size of zero is fatal (spec §4.1).
func Open(path string) (*Device, error) {
	file, sectorSize, err := openDevice(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpen, path, err)
	}
	if sectorSize <= 0 {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s: sector size unavailable", types.ErrOpen, path)
	}
	return &Device{path: path, file: file, sectorSize: sectorSize}, nil
}

// Path returns the device path this Device was opened from.
func (d *Device) Path() string { return d.path }

// SectorSize returns the device's logical block size, in bytes.
func (d *Device) SectorSize() int { return d.sectorSize }

// NewSector returns a zeroed buffer exactly one sector long, aligned for
// O_DIRECT: the kernel rejects unaligned user buffers on a direct-I/O fd
// with EINVAL.
func (d *Device) NewSector() []byte {
	return alignedBuffer(d.sectorSize, directIOAlign)
}

// alignedBuffer returns a size-byte slice whose start address is a
// multiple of align, carved out of a larger backing allocation.
func alignedBuffer(size, align int) []byte {
	buf := make([]byte, size+align)
	offset := 0
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) % uintptr(align)); rem != 0 {
		offset = align - rem
	}
	return buf[offset : offset+size : offset+size]
}

// ReadAt reads exactly one sector at the given sector index into buf. buf
// must be exactly SectorSize() bytes; a short read is an error, never
// silently retried.
func (d *Device) ReadAt(sector int64, buf []byte) error {
	if len(buf) != d.sectorSize {
		return fmt.Errorf("%w: read buffer %d bytes, want sector size %d", types.ErrIO, len(buf), d.sectorSize)
	}
	n, err := d.file.ReadAt(buf, sector*int64(d.sectorSize))
	if err != nil {
		return fmt.Errorf("%w: %s: sector %d: %v", types.ErrIO, d.path, sector, err)
	}
	if n != d.sectorSize {
		return fmt.Errorf("%w: %s: sector %d: short read (%d of %d bytes)", types.ErrIO, d.path, sector, n, d.sectorSize)
	}
	return nil
}

// WriteAt writes exactly one sector at the given sector index. buf must be
// exactly SectorSize() bytes. Because the device was opened with O_SYNC,
// the write is durable by the time this call returns.
func (d *Device) WriteAt(sector int64, buf []byte) error {
	if len(buf) != d.sectorSize {
		return fmt.Errorf("%w: write buffer %d bytes, want sector size %d", types.ErrIO, len(buf), d.sectorSize)
	}
	n, err := d.file.WriteAt(buf, sector*int64(d.sectorSize))
	if err != nil {
		return fmt.Errorf("%w: %s: sector %d: %v", types.ErrIO, d.path, sector, err)
	}
	if n != d.sectorSize {
		return fmt.Errorf("%w: %s: sector %d: short write (%d of %d bytes)", types.ErrIO, d.path, sector, n, d.sectorSize)
	}
	return nil
}

// Close closes the underlying file descriptor.
func (d *Device) Close() error {
	return d.file.Close()
}
