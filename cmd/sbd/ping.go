package main

import (
	"fmt"
	"time"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/metrics"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping <target>",
	Short: "TEST a node's slot on every configured disk and report per-disk delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		msgwait := time.Duration(cfg.TimeoutMsgwait) * time.Second

		acked := 0
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			d := slot.Ping(dev, target, cfg.LocalName, msgwait)
			dev.Close()

			if d.Err != nil {
				metrics.DeliveriesTotal.WithLabelValues(path, "error").Inc()
				fmt.Printf("%s: slot=%d error=%v\n", path, d.Slot, d.Err)
				continue
			}
			metrics.DeliveriesTotal.WithLabelValues(path, "acked").Inc()
			acked++
			fmt.Printf("%s: slot=%d acked=%v\n", path, d.Slot, d.Acked)
		}
		quorum := cfg.QuorumSize()
		if acked < quorum {
			return fmt.Errorf("%s responded on only %d/%d disks, need a majority of %d", target, acked, len(cfg.Disks), quorum)
		}
		return nil
	},
}
