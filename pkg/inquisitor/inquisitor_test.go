package inquisitor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/sbd/pkg/ipc"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/stretchr/testify/assert"
)

// countingTickler is a tickler fake: no real device, just a call counter.
type countingTickler struct {
	mu      sync.Mutex
	tickles int
	closed  bool
}

func (c *countingTickler) Tickle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickles++
	return nil
}

func (c *countingTickler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *countingTickler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickles
}

// fakeSpawner hands back pre-wired channels per device instead of forking
// any real process, per the no-real-subprocesses testing strategy for
// quorum safety.
type fakeSpawner struct {
	mu     sync.Mutex
	events map[string]chan ipc.Event
	waits  map[string]chan error
}

func newFakeSpawner(disks []string) *fakeSpawner {
	f := &fakeSpawner{
		events: make(map[string]chan ipc.Event),
		waits:  make(map[string]chan error),
	}
	for _, d := range disks {
		f.events[d] = make(chan ipc.Event, 16)
		f.waits[d] = make(chan error, 1)
	}
	return f
}

func (f *fakeSpawner) Spawn(dev string, mode types.ServantMode) (*ChildHandle, error) {
	f.mu.Lock()
	ev, ok := f.events[dev]
	wait, ok2 := f.waits[dev]
	f.mu.Unlock()
	if !ok || !ok2 {
		return nil, fmt.Errorf("fakeSpawner: unknown device %s", dev)
	}
	return &ChildHandle{
		// A pid far outside any real process range: beginExit signals
		// this pid during shutdown, and it must reliably not match a
		// real process on the machine running the test.
		Dev:    dev,
		Pid:    1<<30 + len(dev),
		Events: ev,
		Wait:   func() error { return <-wait },
	}, nil
}

func (f *fakeSpawner) liveness(dev string) {
	f.events[dev] <- ipc.Event{Kind: ipc.KindLiveness, Device: dev}
}

func TestWatchTicklesOnceQuorumReports(t *testing.T) {
	disks := []string{"/dev/a", "/dev/b", "/dev/c"}
	cfg := &types.Config{Disks: disks, LocalName: "node-a"}
	spawner := newFakeSpawner(disks)
	inq := New(cfg, spawner)
	wd := &countingTickler{}
	inq.wd = wd

	done := make(chan struct{})
	go func() {
		_ = inq.Watch()
		close(done)
	}()

	// quorum for 3 disks is 2.
	spawner.liveness("/dev/a")
	spawner.liveness("/dev/b")

	assert.Eventually(t, func() bool { return wd.count() == 1 }, time.Second, 10*time.Millisecond)

	inq.Shutdown()
	for _, d := range disks {
		spawner.waits[d] <- nil
	}
	<-done
	assert.True(t, wd.closed)
}

func TestWatchDoesNotTickleBelowQuorum(t *testing.T) {
	disks := []string{"/dev/a", "/dev/b", "/dev/c"}
	cfg := &types.Config{Disks: disks, LocalName: "node-a"}
	spawner := newFakeSpawner(disks)
	inq := New(cfg, spawner)
	wd := &countingTickler{}
	inq.wd = wd

	done := make(chan struct{})
	go func() {
		_ = inq.Watch()
		close(done)
	}()

	spawner.liveness("/dev/a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, wd.count())

	inq.Shutdown()
	for _, d := range disks {
		spawner.waits[d] <- nil
	}
	<-done
}

func TestValidateFailsBelowQuorumWithoutTouchingDisks(t *testing.T) {
	// Three disks, only one prepares successfully: below the quorum of 2,
	// Validate must fail before ever trying to re-read a header (which
	// would require a real block device).
	disks := []string{"/dev/a", "/dev/b", "/dev/c"}
	cfg := &types.Config{Disks: disks, LocalName: "node-a"}
	spawner := newFakeSpawner(disks)
	inq := New(cfg, spawner)

	go func() {
		spawner.waits["/dev/a"] <- nil
		close(spawner.events["/dev/a"])
		spawner.waits["/dev/b"] <- fmt.Errorf("exit status 1")
		close(spawner.events["/dev/b"])
		spawner.waits["/dev/c"] <- fmt.Errorf("exit status 1")
		close(spawner.events["/dev/c"])
	}()

	err := inq.Validate()
	assert.Error(t, err)
	assert.ErrorIs(t, err, types.ErrQuorumLost)
}

func TestWatchTicklesRepeatedlyAsReportsCycle(t *testing.T) {
	disks := []string{"/dev/a", "/dev/b"}
	cfg := &types.Config{Disks: disks, LocalName: "node-a"}
	spawner := newFakeSpawner(disks)
	inq := New(cfg, spawner)
	wd := &countingTickler{}
	inq.wd = wd

	done := make(chan struct{})
	go func() {
		_ = inq.Watch()
		close(done)
	}()

	// quorum for 2 disks is 2.
	spawner.liveness("/dev/a")
	spawner.liveness("/dev/b")
	assert.Eventually(t, func() bool { return wd.count() == 1 }, time.Second, 10*time.Millisecond)

	// Duplicate liveness from the same disk before the set clears must
	// not double count — report set is a set, per spec.
	spawner.liveness("/dev/a")
	spawner.liveness("/dev/a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, wd.count())

	spawner.liveness("/dev/b")
	assert.Eventually(t, func() bool { return wd.count() == 2 }, time.Second, 10*time.Millisecond)

	inq.Shutdown()
	for _, d := range disks {
		spawner.waits[d] <- nil
	}
	<-done
}
