package main

import (
	"fmt"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the header of every configured disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			h, err := slot.Dump(dev)
			dev.Close()
			if err != nil {
				return fmt.Errorf("dump on %s: %w", path, err)
			}
			fmt.Printf("%s: slots=%d watchdog=%ds loop=%ds msgwait=%ds\n",
				path, h.Slots, h.TimeoutWatchdog, h.TimeoutLoop, h.TimeoutMsgwait)
		}
		return nil
	},
}
