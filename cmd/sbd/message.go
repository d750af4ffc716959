package main

import (
	"fmt"
	"time"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/metrics"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/spf13/cobra"
)

var messageCmdName map[string]types.Command = map[string]types.Command{
	"test":  types.CmdTest,
	"reset": types.CmdReset,
	"off":   types.CmdOff,
	"exit":  types.CmdExit,
	"clear": types.CmdClear,
}

var messageCmd = &cobra.Command{
	Use:   "message <target> <test|reset|off|exit|clear>",
	Short: "Send a fencing command to a node's slot on every configured disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		c, ok := messageCmdName[args[1]]
		if !ok {
			return fmt.Errorf("unknown command %q", args[1])
		}

		msgwait := time.Duration(cfg.TimeoutMsgwait) * time.Second
		deliveries := make([]slot.Delivery, 0, len(cfg.Disks))
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			d := slot.Send(dev, target, cfg.LocalName, c, msgwait)
			dev.Close()
			d.Disk = path
			deliveries = append(deliveries, d)
		}

		acked := 0
		for _, d := range deliveries {
			outcome := "delivered"
			if d.Err != nil {
				outcome = "error"
			}
			metrics.DeliveriesTotal.WithLabelValues(d.Disk, outcome).Inc()
			if d.Acked {
				acked++
			}
			if cfg.Verbose || d.Err != nil {
				if d.Err != nil {
					fmt.Printf("%s: slot=%d error=%v\n", d.Disk, d.Slot, d.Err)
				} else {
					fmt.Printf("%s: slot=%d acked=%v\n", d.Disk, d.Slot, d.Acked)
				}
			}
		}
		quorum := cfg.QuorumSize()
		if acked < quorum {
			return fmt.Errorf("%s was delivered on only %d/%d disks, need a majority of %d", target, acked, len(deliveries), quorum)
		}
		fmt.Printf("%s: delivered on %d/%d disks\n", target, acked, len(deliveries))
		return nil
	},
}
