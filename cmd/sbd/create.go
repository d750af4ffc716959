package main

import (
	"fmt"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/spf13/cobra"
)

var createSlots int

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Format every configured disk with a fresh header and mailbox slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			err = slot.CreateHeader(dev, createSlots, cfg.TimeoutWatchdog, cfg.TimeoutLoop, cfg.TimeoutMsgwait)
			dev.Close()
			if err != nil {
				return fmt.Errorf("create on %s: %w", path, err)
			}
			fmt.Printf("%s: initialized with %d slots\n", path, createSlots)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().IntVar(&createSlots, "slots", 255, "number of mailbox slots to allocate")
}
