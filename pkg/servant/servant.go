package servant

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/ipc"
	"github.com/cuemby/sbd/pkg/log"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/rs/zerolog"
)

// Servant owns exactly one disk and one mailbox slot.
type Servant struct {
	Dev        string
	LocalName  string
	Mode       types.ServantMode
	Cfg        *types.Config
	dev        bdio.SectorDevice
	slotIdx    int
	enc        *ipc.Encoder
	loopPeriod time.Duration
	warnAfter  time.Duration
}

// New constructs a Servant. enc is the encoder for the inherited pipe to
// the inquisitor; it may be nil for PREPARE_ONLY servants, which never
// emit events.
func New(devPath, localName string, mode types.ServantMode, cfg *types.Config, enc *ipc.Encoder) *Servant {
	return &Servant{
		Dev:        devPath,
		LocalName:  localName,
		Mode:       mode,
		Cfg:        cfg,
		enc:        enc,
		loopPeriod: time.Duration(cfg.TimeoutLoop) * time.Second,
		warnAfter:  time.Duration(cfg.TimeoutWatchdogWarn) * time.Second,
	}
}

// Run executes the prepare phase and, for DO_FULLJOB servants, the
// steady-state loop. It returns nil on a voluntary exit (prepare-only
// mode finished, or the parent died) and a non-nil error only for prepare-phase
// failures a caller should report and exit non-zero for.
func (s *Servant) Run() error {
	logger := log.WithDevice(s.Dev).With().Str("node", s.LocalName).Logger()

	dev, err := bdio.Open(s.Dev)
	if err != nil {
		return fmt.Errorf("servant open %s: %w", s.Dev, err)
	}
	s.dev = dev
	defer dev.Close()

	if err := s.prepare(); err != nil {
		return err
	}
	logger.Debug().Int("slot", s.slotIdx).Msg("servant prepared")

	if s.Mode == types.ModePrepareOnly {
		return nil
	}

	s.loop(logger)
	return nil
}

// prepare allocates (or finds) this servant's slot and clears any pending
// command left over from a previous owner, per spec §4.4's preparation
// phase. It assumes s.dev is already open.
func (s *Servant) prepare() error {
	idx, err := slot.Allocate(s.dev, s.LocalName)
	if err != nil {
		return fmt.Errorf("servant allocate slot on %s: %w", s.Dev, err)
	}
	s.slotIdx = idx

	if err := slot.ClearMailbox(s.dev, idx); err != nil {
		return fmt.Errorf("servant clear slot %d on %s: %w", idx, s.Dev, err)
	}
	return nil
}

// loop is the DO_FULLJOB steady-state iteration, run once per
// TimeoutLoop. It returns only when the parent has died; an EXIT command
// is reported upstream and the loop keeps running, and do_reset/do_off
// never return (see doReset/doOff).
func (s *Servant) loop(logger zerolog.Logger) {
	ticker := time.NewTicker(s.loopPeriod)
	defer ticker.Stop()

	for range ticker.C {
		start := time.Now()

		if os.Getppid() == 1 {
			logger.Info().Msg("parent died, exiting voluntarily")
			return
		}

		m, err := slot.ReadMailbox(s.dev, s.slotIdx)
		if err != nil {
			logger.Error().Err(err).Msg("mailbox read failed, resetting")
			s.doReset(logger, "mailbox read failure")
			return
		}

		if m.Cmd != types.CmdClear {
			switch m.Cmd {
			case types.CmdTest:
				if err := slot.ClearMailbox(s.dev, s.slotIdx); err != nil {
					logger.Error().Err(err).Msg("failed to clear TEST slot")
				}
				s.emit(ipc.KindTest, "")
			case types.CmdReset:
				s.doReset(logger, fmt.Sprintf("RESET from %s", m.From))
				return
			case types.CmdOff:
				s.doOff(logger, fmt.Sprintf("OFF from %s", m.From))
				return
			case types.CmdExit:
				s.emit(ipc.KindExitRequest, fmt.Sprintf("EXIT from %s", m.From))
				if err := slot.ClearMailbox(s.dev, s.slotIdx); err != nil {
					logger.Error().Err(err).Msg("failed to clear EXIT slot")
				}
			default:
				logger.Warn().Str("cmd", m.Cmd.String()).Msg("unknown command, clearing slot")
				if err := slot.ClearMailbox(s.dev, s.slotIdx); err != nil {
					logger.Error().Err(err).Msg("failed to clear unknown-command slot")
				}
			}
		}

		latency := time.Since(start)
		s.emitLiveness(latency)
		if s.warnAfter > 0 && latency > s.warnAfter {
			logger.Warn().Dur("latency", latency).Msg("loop iteration exceeded watchdog warn threshold")
		}
	}
}

// doReset logs the fatal condition and reports a fault upstream, then
// blocks forever: it never calls a reboot syscall directly (see
// DESIGN.md) — it relies on the inquisitor's already-armed watchdog to
// starve and fire the host reboot once the current tickle window lapses.
func (s *Servant) doReset(logger zerolog.Logger, reason string) {
	logger.Error().Str("reason", reason).Msg("do_reset: requesting self-fence, blocking")
	s.emit(ipc.KindFault, "reset: "+reason)
	select {}
}

// doOff is identical to doReset in this implementation: neither function
// distinguishes reboot from power-off at the servant level, since both
// resolve to "stop tickling and let the watchdog decide" (see
// SPEC_FULL.md §9).
func (s *Servant) doOff(logger zerolog.Logger, reason string) {
	logger.Error().Str("reason", reason).Msg("do_off: requesting self-fence, blocking")
	s.emit(ipc.KindFault, "off: "+reason)
	select {}
}

func (s *Servant) emit(kind ipc.Kind, detail string) {
	if s.enc == nil {
		return
	}
	_ = s.enc.Encode(ipc.Event{
		Kind:   kind,
		Device: s.Dev,
		Pid:    os.Getpid(),
		At:     time.Now(),
		Detail: detail,
	})
}

// emitLiveness reports the heartbeat along with how long this loop
// iteration took, so the inquisitor (the process that actually owns the
// Prometheus registry) can observe it in sbd_servant_loop_latency_seconds.
func (s *Servant) emitLiveness(latency time.Duration) {
	if s.enc == nil {
		return
	}
	_ = s.enc.Encode(ipc.Event{
		Kind:    ipc.KindLiveness,
		Device:  s.Dev,
		Pid:     os.Getpid(),
		At:      time.Now(),
		Latency: latency.Seconds(),
	})
}
