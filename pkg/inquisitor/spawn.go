package inquisitor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/cuemby/sbd/pkg/ipc"
	"github.com/cuemby/sbd/pkg/types"
)

// ReexecEnv is set to "1" in every re-exec'd servant's environment. The
// child selects servant mode from the hidden __servant subcommand; nothing
// in this module reads the variable.
const ReexecEnv = "SBD_SERVANT_MODE"

// ChildHandle is a spawned servant: its process, and the channel its
// events arrive on. Events is closed once the per-child reader goroutine
// observes EOF on the child's pipe (which happens no earlier than process
// exit, since the child holds the pipe's only write end).
type ChildHandle struct {
	Dev    string
	Pid    int
	Events <-chan ipc.Event
	Wait   func() error
}

// Spawner creates servant child processes. The real implementation
// re-execs the current binary; tests substitute a fake that never forks.
type Spawner interface {
	Spawn(dev string, mode types.ServantMode) (*ChildHandle, error)
}

// ProcessSpawner re-executes the running binary in hidden servant mode,
// one real OS process per disk, communicating over an inherited pipe
// framed as newline-delimited JSON (see package ipc for why not raw
// signals).
type ProcessSpawner struct {
	Cfg *types.Config
}

// Spawn starts dev's servant in the given mode and returns once the
// child process has been started (not once it has finished preparing).
func (p *ProcessSpawner) Spawn(dev string, mode types.ServantMode) (*ChildHandle, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve re-exec binary: %w", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create servant pipe for %s: %w", dev, err)
	}

	cmd := exec.Command(self, "__servant",
		"--dev", dev,
		"--name", p.Cfg.LocalName,
		"--mode", modeFlag(mode),
		"--timeout-loop", strconv.Itoa(p.Cfg.TimeoutLoop),
		"--timeout-watchdog-warn", strconv.Itoa(p.Cfg.TimeoutWatchdogWarn),
	)
	cmd.Env = append(os.Environ(), ReexecEnv+"=1")
	cmd.ExtraFiles = []*os.File{w}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("start servant for %s: %w", dev, err)
	}
	w.Close() // parent's copy of the write end; the child keeps its own.

	events := make(chan ipc.Event, 16)
	go func() {
		defer close(events)
		defer r.Close()
		dec := ipc.NewDecoder(r)
		for {
			ev, err := dec.Next()
			if err != nil {
				return
			}
			events <- ev
		}
	}()

	return &ChildHandle{
		Dev:    dev,
		Pid:    cmd.Process.Pid,
		Events: events,
		Wait:   cmd.Wait,
	}, nil
}

func modeFlag(mode types.ServantMode) string {
	if mode == types.ModePrepareOnly {
		return "prepare"
	}
	return "full"
}
