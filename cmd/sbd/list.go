package main

import (
	"fmt"

	"github.com/cuemby/sbd/pkg/bdio"
	"github.com/cuemby/sbd/pkg/slot"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every slot on every configured disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range cfg.Disks {
			dev, err := bdio.Open(path)
			if err != nil {
				return err
			}
			infos, err := slot.List(dev)
			dev.Close()
			if err != nil {
				return fmt.Errorf("list on %s: %w", path, err)
			}
			fmt.Printf("%s:\n", path)
			for _, info := range infos {
				if info.Name == "" {
					if cfg.Verbose {
						fmt.Printf("  %d: <empty>\n", info.Index)
					}
					continue
				}
				fmt.Printf("  %d: %-24s cmd=%-6s from=%s\n", info.Index, info.Name, info.Cmd, info.From)
			}
		}
		return nil
	},
}
