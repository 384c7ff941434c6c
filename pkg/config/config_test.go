/*
   Copyright The containerd Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, RestartModeList, cfg.RestartMode)
}

func TestLoadDecodesOverrideRCInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "needrestart.toml")
	const doc = `
verbose = true
blacklist = ["^/usr/bin/vi$"]
interpscan = true
restart_mode = "automatic"

[[override_rc]]
pattern = "^ssh.service$"
restart = false

[[override_rc]]
pattern = "^cron.service$"
restart = true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Verbose)
	require.Equal(t, RestartModeAutomatic, cfg.RestartMode)
	require.Equal(t, []string{"^/usr/bin/vi$"}, cfg.Blacklist)
	require.Len(t, cfg.OverrideRC, 2)
	require.Equal(t, "^ssh.service$", cfg.OverrideRC[0].Pattern)
	require.False(t, cfg.OverrideRC[0].Restart)
	require.Equal(t, "^cron.service$", cfg.OverrideRC[1].Pattern)
	require.True(t, cfg.OverrideRC[1].Restart)
}

func TestLoadRejectsUnknownRestartMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "needrestart.toml")
	require.NoError(t, os.WriteFile(path, []byte(`restart_mode = "explode"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, errdefs.IsInvalidArgument(err))
}

func TestLoadRejectsUnparsableTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "needrestart.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not = = toml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.True(t, errdefs.IsInvalidArgument(err))
}

func TestScanOptionsProjectsOverridesAndBlacklists(t *testing.T) {
	cfg := Default()
	cfg.Blacklist = []string{"^/usr/bin/vi$"}
	cfg.BlacklistRC = []string{"^sudo$"}
	cfg.OverrideRC = []OverrideRule{{Pattern: "^foo$", Restart: true}}
	cfg.KernelHints = true

	opts := cfg.ScanOptions(true, 1000)
	require.True(t, opts.Unprivileged)
	require.Equal(t, 1000, opts.CurrentUID)
	require.Equal(t, []string{"^/usr/bin/vi$"}, opts.Blacklist)
	require.Equal(t, []string{"^sudo$"}, opts.BlacklistRC)
	require.True(t, opts.KernelHints)
	require.Len(t, opts.OverrideRC, 1)
	require.Equal(t, "^foo$", opts.OverrideRC[0].Pattern)
}
