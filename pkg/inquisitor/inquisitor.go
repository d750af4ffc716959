package inquisitor

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/ipc"
	"github.com/cuemby/sbd/pkg/log"
	"github.com/cuemby/sbd/pkg/metrics"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/cuemby/sbd/pkg/watchdog"
)

// Inquisitor is the supervisor. Every field that the original design kept
// as process-global state (the servant list, the report set, the exiting
// flag) lives here instead, built once at startup and passed by reference
// — never package-level mutable state. Timeout inconsistency is not kept
// as a flag: Validate returns it as an error.
type Inquisitor struct {
	cfg     *types.Config
	spawner Spawner

	mu        sync.Mutex
	records   map[string]*types.ServantRecord
	handles   map[string]*ChildHandle
	exiting   bool
	wd        tickler
	reportSet map[string]bool
}

// tickler is the subset of *watchdog.Watchdog the event loop depends on.
// Tests substitute a counting fake instead of a real device.
type tickler interface {
	Tickle() error
	Close() error
}

// New builds an Inquisitor over cfg, using spawner to create servant
// children. Pass a *ProcessSpawner in production; tests substitute a
// fake spawner with no real subprocesses.
func New(cfg *types.Config, spawner Spawner) *Inquisitor {
	return &Inquisitor{
		cfg:       cfg,
		spawner:   spawner,
		records:   make(map[string]*types.ServantRecord),
		handles:   make(map[string]*ChildHandle),
		reportSet: make(map[string]bool),
	}
}

// Validate is Phase A: fork every configured disk's servant in
// prepare-only mode, wait for all of them, and require a strict majority
// to exit 0 with an identical timeout triple.
func (inq *Inquisitor) Validate() error {
	quorum := inq.cfg.QuorumSize()
	good := make([]string, 0, len(inq.cfg.Disks))

	for _, dev := range inq.cfg.Disks {
		h, err := inq.spawner.Spawn(dev, types.ModePrepareOnly)
		if err != nil {
			log.WithDevice(dev).Error().Err(err).Msg("prepare-only servant failed to start")
			continue
		}
		drainEvents(h.Events)
		if err := h.Wait(); err != nil {
			log.WithDevice(dev).Warn().Err(err).Msg("prepare-only servant exited non-zero")
			continue
		}
		good = append(good, dev)
	}

	if len(good) < quorum {
		return fmt.Errorf("%w: only %d of %d disks prepared, need %d", types.ErrQuorumLost, len(good), len(inq.cfg.Disks), quorum)
	}

	if err := inq.checkTimeoutConsistency(good); err != nil {
		return err
	}
	return nil
}

func (inq *Inquisitor) checkTimeoutConsistency(disks []string) error {
	var first *slot.Header
	for _, dev := range disks {
		d, err := bdio.Open(dev)
		if err != nil {
			return fmt.Errorf("re-read header on %s: %w", dev, err)
		}
		h, err := slot.ReadHeader(d)
		d.Close()
		if err != nil {
			return fmt.Errorf("re-read header on %s: %w", dev, err)
		}
		if first == nil {
			first = &h
			continue
		}
		if !h.TimeoutsMatch(int(first.TimeoutWatchdog), int(first.TimeoutLoop), int(first.TimeoutMsgwait)) {
			return fmt.Errorf("%w: timeout triple on %s does not match the rest of the disk set", types.ErrBadConfig, dev)
		}
	}
	return nil
}

// Arm is Phase B: open and program the hardware watchdog, unless
// watchdog use is disabled by operator policy.
func (inq *Inquisitor) Arm() error {
	if !inq.cfg.WatchdogEnabled {
		metrics.UpdateComponent("watchdog", true, "disabled by policy")
		return nil
	}
	wd, err := watchdog.Open(inq.cfg.WatchdogDevice, inq.cfg.TimeoutWatchdog, inq.cfg.WatchdogSetTimeout)
	if err != nil {
		metrics.UpdateComponent("watchdog", false, err.Error())
		return fmt.Errorf("arm watchdog: %w", err)
	}
	inq.wd = wd
	metrics.WatchdogArmed.Set(1)
	metrics.UpdateComponent("watchdog", true, "")
	return nil
}

type taggedEvent struct {
	dev string
	ev  ipc.Event
}

type childResult struct {
	dev string
	err error
}

// Watch is Phase C: fork every disk's servant in full-job mode and run
// the steady-state event loop until an exit is requested (by a mailbox
// EXIT command relayed from a servant, or an operator SIGTERM/SIGINT) and
// every child has been reaped.
func (inq *Inquisitor) Watch() error {
	quorum := inq.cfg.QuorumSize()
	metrics.QuorumSize.Set(float64(quorum))
	metrics.UpdateComponent("quorum", true, "")

	events := make(chan taggedEvent, 64)
	results := make(chan childResult, 64)
	var wg sync.WaitGroup

	spawnOne := func(dev string) error {
		h, err := inq.spawner.Spawn(dev, types.ModeFullJob)
		if err != nil {
			return err
		}
		inq.mu.Lock()
		inq.handles[dev] = h
		inq.records[dev] = &types.ServantRecord{DevName: dev, Pid: h.Pid}
		inq.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range h.Events {
				ev.Device = dev // never trust a child's self-reported device
				events <- taggedEvent{dev: dev, ev: ev}
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- childResult{dev: dev, err: h.Wait()}
		}()
		return nil
	}

	for _, dev := range inq.cfg.Disks {
		if err := spawnOne(dev); err != nil {
			log.WithDevice(dev).Error().Err(err).Msg("failed to start full-job servant")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for {
		select {
		case te := <-events:
			inq.handleEvent(te)
			if inq.done() {
				wg.Wait()
				return nil
			}

		case res := <-results:
			inq.handleExit(res, spawnOne)
			if inq.done() {
				wg.Wait()
				return nil
			}

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				inq.operatorRestart(spawnOne)
			default:
				inq.beginExit()
			}
			if inq.done() {
				wg.Wait()
				return nil
			}
		}
	}
}

func (inq *Inquisitor) handleEvent(te taggedEvent) {
	switch te.ev.Kind {
	case ipc.KindLiveness:
		metrics.ServantLoopLatency.WithLabelValues(te.dev).Observe(te.ev.Latency)
		inq.mu.Lock()
		if !inq.reportSet[te.dev] {
			inq.reportSet[te.dev] = true
		}
		n := len(inq.reportSet)
		metrics.ServantsReporting.Set(float64(n))
		tickle := n >= inq.cfg.QuorumSize()
		if tickle {
			inq.reportSet = make(map[string]bool)
		}
		inq.mu.Unlock()
		if tickle {
			inq.tickle()
		}

	case ipc.KindTest:
		log.WithDevice(te.dev).Debug().Msg("servant TEST observed")

	case ipc.KindFault:
		log.WithDevice(te.dev).Error().Str("detail", te.ev.Detail).Msg("servant requested self-fence")

	case ipc.KindExitRequest:
		log.WithDevice(te.dev).Warn().Str("detail", te.ev.Detail).Msg("EXIT requested, shutting down")
		inq.beginExit()
	}
}

func (inq *Inquisitor) tickle() {
	if inq.wd == nil {
		return
	}
	if err := inq.wd.Tickle(); err != nil {
		log.Error("watchdog tickle failed")
		return
	}
	metrics.WatchdogTicklesTotal.Inc()
}

func (inq *Inquisitor) handleExit(res childResult, respawn func(string) error) {
	inq.mu.Lock()
	delete(inq.handles, res.dev)
	exiting := inq.exiting
	inq.mu.Unlock()

	if exiting {
		inq.mu.Lock()
		delete(inq.records, res.dev)
		inq.mu.Unlock()
		return
	}

	signaled, sig := exitSignal(res.err)
	switch {
	case res.err == nil:
		// Clean exit: clear the record's pid but keep it in the set, so
		// an operator restart (SIGUSR1) notices it is dead and respawns
		// it. The next tick does not respawn it on its own.
		inq.mu.Lock()
		if rec, ok := inq.records[res.dev]; ok {
			rec.Pid = 0
		}
		inq.mu.Unlock()
		metrics.ServantExitsTotal.WithLabelValues(res.dev, "exit").Inc()

	case signaled && sig == int(syscall.SIGKILL):
		// Something external is deliberately killing servants; do not
		// fight it by respawning.
		inq.mu.Lock()
		if rec, ok := inq.records[res.dev]; ok {
			rec.Pid = 0
		}
		inq.mu.Unlock()
		metrics.ServantExitsTotal.WithLabelValues(res.dev, "killed").Inc()

	default:
		log.WithDevice(res.dev).Warn().Err(res.err).Msg("servant died unexpectedly, respawning")
		metrics.ServantExitsTotal.WithLabelValues(res.dev, "crashed").Inc()
		if err := respawn(res.dev); err != nil {
			log.WithDevice(res.dev).Error().Err(err).Msg("failed to respawn servant")
		}
	}
}

func (inq *Inquisitor) operatorRestart(respawn func(string) error) {
	inq.tickle()
	inq.mu.Lock()
	dead := make([]string, 0)
	for dev, rec := range inq.records {
		if rec.Pid == 0 {
			dead = append(dead, dev)
		}
	}
	inq.reportSet = make(map[string]bool)
	inq.mu.Unlock()

	for _, dev := range dead {
		if err := respawn(dev); err != nil {
			log.WithDevice(dev).Error().Err(err).Msg("operator restart: respawn failed")
		}
	}
	inq.tickle()
}

// beginExit latches the exiting flag, kills every live servant, and
// disarms the watchdog with the magic-close handshake.
func (inq *Inquisitor) beginExit() {
	inq.mu.Lock()
	if inq.exiting {
		inq.mu.Unlock()
		return
	}
	inq.exiting = true
	handles := make([]*ChildHandle, 0, len(inq.handles))
	for _, h := range inq.handles {
		handles = append(handles, h)
	}
	inq.mu.Unlock()

	for _, h := range handles {
		if p, err := os.FindProcess(h.Pid); err == nil {
			_ = p.Signal(syscall.SIGKILL)
		}
	}

	if inq.wd != nil {
		if err := inq.wd.Close(); err != nil {
			log.Error("failed to disarm watchdog during shutdown")
		}
		metrics.WatchdogArmed.Set(0)
	}
}

// done reports whether an exit has been requested and every servant
// record has been reaped.
func (inq *Inquisitor) done() bool {
	inq.mu.Lock()
	defer inq.mu.Unlock()
	if !inq.exiting {
		return false
	}
	for _, rec := range inq.records {
		if rec.Pid != 0 {
			return false
		}
	}
	return true
}

func drainEvents(events <-chan ipc.Event) {
	for range events {
	}
}

// Shutdown signals an orderly exit, for use by CLI signal handling paths
// that do not go through the OS signal channel directly (e.g. context
// cancellation).
func (inq *Inquisitor) Shutdown() {
	inq.beginExit()
}

// WaitForQuiesce blocks until every servant record has been reaped after
// Shutdown, or the timeout elapses.
func (inq *Inquisitor) WaitForQuiesce(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if inq.done() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return inq.done()
}
