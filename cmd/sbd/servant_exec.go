package main

import (
	"fmt"
	"os"

	"github.com/cuemby/sbd/pkg/ipc"
	"github.com/cuemby/sbd/pkg/servant"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/spf13/cobra"
)

// servantPipeFD is the file descriptor number of the inherited pipe write
// end, set by ProcessSpawner via cmd.ExtraFiles[0] (fd 3: stdin, stdout,
// stderr, then the first extra file).
const servantPipeFD = 3

var (
	servantDev       string
	servantName      string
	servantModeFlag  string
	servantLoop      int
	servantWatchWarn int
)

// servantExecCmd is the hidden re-exec target a running sbd binary spawns
// itself into: one real OS process per disk, never invoked directly by an
// operator. It is not added to --help output.
var servantExecCmd = &cobra.Command{
	Use:    "__servant",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := types.ModeFullJob
		if servantModeFlag == "prepare" {
			mode = types.ModePrepareOnly
		}

		var enc *ipc.Encoder
		if mode == types.ModeFullJob {
			pipe := os.NewFile(uintptr(servantPipeFD), "servant-pipe")
			if pipe == nil {
				return fmt.Errorf("servant: fd %d not inherited", servantPipeFD)
			}
			enc = ipc.NewEncoder(pipe)
		}

		sc := &types.Config{
			TimeoutLoop:         servantLoop,
			TimeoutWatchdogWarn: servantWatchWarn,
		}

		s := servant.New(servantDev, servantName, mode, sc, enc)
		return s.Run()
	},
}

func init() {
	flags := servantExecCmd.Flags()
	flags.StringVar(&servantDev, "dev", "", "disk device path")
	flags.StringVar(&servantName, "name", "", "this node's name")
	flags.StringVar(&servantModeFlag, "mode", "full", "prepare|full")
	flags.IntVar(&servantLoop, "timeout-loop", 1, "servant loop period, seconds")
	flags.IntVar(&servantWatchWarn, "timeout-watchdog-warn", 3, "loop latency warning threshold, seconds")
}
