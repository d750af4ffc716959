package servant

import (
	"testing"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func newTestDisk(t *testing.T, slots int) *bdio.MemDevice {
	t.Helper()
	dev := bdio.NewMemDevice(slots+1, 512)
	assert.NoError(t, slot.CreateHeader(dev, slots, 5, 1, 10))
	return dev
}

func TestServantPrepareOnlyAllocatesAndClears(t *testing.T) {
	dev := newTestDisk(t, 2)

	// Pre-seed a pending command to prove the prepare phase clears it.
	idx, err := slot.Allocate(dev, "node-a")
	assert.NoError(t, err)
	assert.NoError(t, slot.WriteMailbox(dev, idx, slot.Mailbox{Name: "node-a", Cmd: types.CmdTest, From: "node-b"}))

	s := &Servant{
		Dev:       "/test/disk",
		LocalName: "node-a",
		Mode:      types.ModePrepareOnly,
		Cfg:       &types.Config{TimeoutLoop: 1},
		dev:       dev,
	}

	assert.NoError(t, s.prepare())

	m, err := slot.ReadMailbox(dev, s.slotIdx)
	assert.NoError(t, err)
	assert.Equal(t, types.CmdClear, m.Cmd)
	assert.Equal(t, "node-a", m.Name)
}

func TestServantPrepareIsIdempotentAcrossRestarts(t *testing.T) {
	dev := newTestDisk(t, 2)

	s1 := &Servant{Dev: "/test/disk", LocalName: "node-a", Mode: types.ModePrepareOnly, dev: dev}
	assert.NoError(t, s1.prepare())
	first := s1.slotIdx

	s2 := &Servant{Dev: "/test/disk", LocalName: "node-a", Mode: types.ModePrepareOnly, dev: dev}
	assert.NoError(t, s2.prepare())

	assert.Equal(t, first, s2.slotIdx)
}
