package main

import (
	"fmt"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/spf13/cobra"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate <name>",
	Short: "Allocate (or find) a node's slot on every configured disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			idx, err := slot.Allocate(dev, name)
			dev.Close()
			if err != nil {
				return fmt.Errorf("allocate on %s: %w", path, err)
			}
			fmt.Printf("%s: %s owns slot %d\n", path, name, idx)
		}
		return nil
	},
}
