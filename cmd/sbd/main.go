package main

import (
	"fmt"
	"os"

	"github.com/cuemby/sbd/pkg/config"
	"github.com/cuemby/sbd/pkg/log"
	"github.com/cuemby/sbd/pkg/types"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build).
	Version = "dev"
	Commit  = "unknown"
)

var (
	cfg        types.Config
	configFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sbd: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sbd",
	Short: "Storage-based death (SBD) node-fencing agent",
	Long: `sbd watches shared disks for fencing commands and tickles a hardware
watchdog as long as a majority of the configured disks report liveness.
If quorum is lost, the watchdog is left untickled and the kernel reboots
the node.`,
	Version:           fmt.Sprintf("%s (%s)", Version, Commit),
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVarP(&cfg.Disks, "disk", "d", nil, "disk device path (repeatable)")
	flags.StringVarP(&cfg.LocalName, "name", "n", defaultNodeName(), "this node's name")
	flags.IntVar(&cfg.TimeoutWatchdog, "timeout-watchdog", 5, "watchdog timeout, seconds")
	flags.IntVar(&cfg.TimeoutAllocate, "timeout-allocate", 2, "slot allocation timeout, seconds")
	flags.IntVar(&cfg.TimeoutLoop, "timeout-loop", 1, "servant loop period, seconds")
	flags.IntVar(&cfg.TimeoutMsgwait, "timeout-msgwait", 10, "message delivery wait, seconds")
	flags.IntVar(&cfg.TimeoutWatchdogWarn, "timeout-watchdog-warn", 3, "loop latency warning threshold, seconds (0 disables)")
	flags.BoolVarP(&cfg.Daemonize, "daemonize", "D", false, "detach into the background")
	flags.BoolVarP(&cfg.WatchdogEnabled, "watchdog", "W", false, "arm the hardware watchdog")
	flags.StringVarP(&cfg.WatchdogDevice, "watchdog-device", "w", "/dev/watchdog", "watchdog device path")
	flags.BoolVar(&cfg.WatchdogSetTimeout, "watchdog-set-timeout", true, "program the watchdog timeout via ioctl on open")
	flags.BoolVarP(&cfg.SkipRT, "skip-rt", "R", false, "skip the soft-realtime scheduling request")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose logging and per-disk result output")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	flags.StringVar(&configFile, "config", "", "YAML config file supplying flag defaults")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(servantExecCmd)
}

func defaultNodeName() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

func loadConfig(cmd *cobra.Command, args []string) error {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	log.Init(log.Config{Level: level})

	if configFile != "" {
		f, err := config.Load(configFile)
		if err != nil {
			return err
		}
		config.Merge(&cfg, f, cmd.Flags().Changed)
	}

	// The hidden re-exec entrypoint builds its own minimal config from
	// its own flags and does not go through disk/name validation here.
	if cmd.Name() == servantExecCmd.Name() {
		return nil
	}
	return config.Validate(&cfg)
}
