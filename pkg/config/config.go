package config

import (
	"fmt"
	"os"

	"github.com/cuemby/sbd/pkg/types"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a --config YAML file. Fields are plain
// values, so Merge treats a zero value (0, "", false, empty list) as
// "absent from file": a file cannot set a field to its zero value.
type File struct {
	Disks               []string `yaml:"disks,omitempty"`
	LocalName           string   `yaml:"local_name,omitempty"`
	TimeoutWatchdog     int      `yaml:"timeout_watchdog,omitempty"`
	TimeoutAllocate     int      `yaml:"timeout_allocate,omitempty"`
	TimeoutLoop         int      `yaml:"timeout_loop,omitempty"`
	TimeoutMsgwait      int      `yaml:"timeout_msgwait,omitempty"`
	TimeoutWatchdogWarn int      `yaml:"timeout_watchdog_warn,omitempty"`
	Daemonize           bool     `yaml:"daemonize,omitempty"`
	WatchdogEnabled     bool     `yaml:"watchdog,omitempty"`
	WatchdogDevice      string   `yaml:"watchdog_device,omitempty"`
	WatchdogSetTimeout  bool     `yaml:"watchdog_set_timeout,omitempty"`
	SkipRT              bool     `yaml:"skip_rt,omitempty"`
	Verbose             bool     `yaml:"verbose,omitempty"`
	MetricsAddr         string   `yaml:"metrics_addr,omitempty"`
}

// Load parses a YAML config file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Merge layers f's values onto cfg wherever the corresponding flag was
// not explicitly set by the operator (set tracks which flag names were).
func Merge(cfg *types.Config, f *File, set func(flag string) bool) {
	if f == nil {
		return
	}
	if len(f.Disks) > 0 && !set("disk") {
		cfg.Disks = f.Disks
	}
	if f.LocalName != "" && !set("name") {
		cfg.LocalName = f.LocalName
	}
	if f.TimeoutWatchdog != 0 && !set("timeout-watchdog") {
		cfg.TimeoutWatchdog = f.TimeoutWatchdog
	}
	if f.TimeoutAllocate != 0 && !set("timeout-allocate") {
		cfg.TimeoutAllocate = f.TimeoutAllocate
	}
	if f.TimeoutLoop != 0 && !set("timeout-loop") {
		cfg.TimeoutLoop = f.TimeoutLoop
	}
	if f.TimeoutMsgwait != 0 && !set("timeout-msgwait") {
		cfg.TimeoutMsgwait = f.TimeoutMsgwait
	}
	if f.TimeoutWatchdogWarn != 0 && !set("timeout-watchdog-warn") {
		cfg.TimeoutWatchdogWarn = f.TimeoutWatchdogWarn
	}
	if f.Daemonize && !set("daemonize") {
		cfg.Daemonize = true
	}
	if f.WatchdogEnabled && !set("watchdog") {
		cfg.WatchdogEnabled = true
	}
	if f.WatchdogDevice != "" && !set("watchdog-device") {
		cfg.WatchdogDevice = f.WatchdogDevice
	}
	if f.WatchdogSetTimeout && !set("watchdog-set-timeout") {
		cfg.WatchdogSetTimeout = true
	}
	if f.SkipRT && !set("skip-rt") {
		cfg.SkipRT = true
	}
	if f.Verbose && !set("verbose") {
		cfg.Verbose = true
	}
	if f.MetricsAddr != "" && !set("metrics-addr") {
		cfg.MetricsAddr = f.MetricsAddr
	}
}

// Validate checks the invariants a Config must satisfy before any
// component trusts it.
func Validate(cfg *types.Config) error {
	if len(cfg.Disks) == 0 {
		return fmt.Errorf("%w: at least one disk is required", types.ErrBadConfig)
	}
	if cfg.LocalName == "" {
		return fmt.Errorf("%w: a local node name is required", types.ErrBadConfig)
	}
	if cfg.TimeoutWatchdog <= 0 || cfg.TimeoutLoop <= 0 || cfg.TimeoutMsgwait <= 0 {
		return fmt.Errorf("%w: watchdog/loop/msgwait timeouts must be positive", types.ErrBadConfig)
	}
	if cfg.TimeoutWatchdog > 255 || cfg.TimeoutLoop > 255 || cfg.TimeoutMsgwait > 255 {
		return fmt.Errorf("%w: timeouts must fit in one header byte (0-255 seconds)", types.ErrBadConfig)
	}
	return nil
}
