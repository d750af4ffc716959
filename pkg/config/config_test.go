package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/sbd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sbd.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(`
disks:
  - /dev/sdb1
  - /dev/sdc1
local_name: node-a
timeout_watchdog: 5
timeout_loop: 1
timeout_msgwait: 10
watchdog: true
`), 0o600))

	f, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/dev/sdb1", "/dev/sdc1"}, f.Disks)
	assert.Equal(t, "node-a", f.LocalName)
	assert.True(t, f.WatchdogEnabled)
}

func TestMergeFillsOnlyUnsetFlags(t *testing.T) {
	cfg := &types.Config{LocalName: "from-flag"}
	f := &File{LocalName: "from-file", TimeoutLoop: 2, Disks: []string{"/dev/sdb1"}}

	setFlags := map[string]bool{"name": true}
	Merge(cfg, f, func(flag string) bool { return setFlags[flag] })

	assert.Equal(t, "from-flag", cfg.LocalName, "explicit flag must win over file")
	assert.Equal(t, 2, cfg.TimeoutLoop, "file fills unset flag")
	assert.Equal(t, []string{"/dev/sdb1"}, cfg.Disks)
}

func TestValidateRejectsMissingDisks(t *testing.T) {
	cfg := &types.Config{LocalName: "node-a", TimeoutWatchdog: 5, TimeoutLoop: 1, TimeoutMsgwait: 10}
	err := Validate(cfg)
	assert.ErrorIs(t, err, types.ErrBadConfig)
}

func TestValidateRejectsOversizedTimeout(t *testing.T) {
	cfg := &types.Config{
		Disks: []string{"/dev/sdb1"}, LocalName: "node-a",
		TimeoutWatchdog: 5, TimeoutLoop: 1, TimeoutMsgwait: 300,
	}
	err := Validate(cfg)
	assert.ErrorIs(t, err, types.ErrBadConfig)
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	cfg := &types.Config{
		Disks: []string{"/dev/sdb1"}, LocalName: "node-a",
		TimeoutWatchdog: 5, TimeoutLoop: 1, TimeoutMsgwait: 10,
	}
	assert.NoError(t, Validate(cfg))
}
