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

// Package config loads the on-disk TOML configuration file into the
// Options surface the core accepts (§6). It lives outside core/ on
// purpose: the core itself never touches a filesystem path for its own
// configuration, only the already-decoded struct this package produces.
package config

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
	"github.com/pelletier/go-toml/v2"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/needrestart"
	"github.com/basuotian/needrestart/core/report"
)

// RestartMode is opaque to the core; the CLI layer switches on it.
type RestartMode string

const (
	RestartModeList        RestartMode = "list"
	RestartModeInteractive RestartMode = "interactive"
	RestartModeAutomatic   RestartMode = "automatic"
)

// OverrideRule is one entry of the TOML `[[override_rc]]` array of
// tables, preserving declaration order the way an "ordered map of regex
// -> restart policy" (§6) would.
type OverrideRule struct {
	Pattern string `toml:"pattern"`
	Restart bool   `toml:"restart"`
}

// Config is the on-disk shape of §6's Configuration surface.
type Config struct {
	Verbose     bool           `toml:"verbose"`
	Blacklist   []string       `toml:"blacklist"`
	BlacklistRC []string       `toml:"blacklist_rc"`
	OverrideRC  []OverrideRule `toml:"override_rc"`
	InterpScan  bool           `toml:"interpscan"`
	KernelHints bool           `toml:"kernelhints"`
	RestartMode RestartMode    `toml:"restart_mode"`
	Defno       bool           `toml:"defno"`

	// BootDir and ImageGlobs are decoded but ScanOptions does not carry
	// them; the kernel scan always reads /boot with
	// kernel.DefaultImageGlobs.
	BootDir    string   `toml:"boot_dir"`
	ImageGlobs []string `toml:"image_globs"`
}

// Default returns the configuration a fresh install ships with.
func Default() *Config {
	return &Config{
		RestartMode: RestartModeList,
	}
}

// Load reads and decodes the TOML file at path. A missing file is not an
// error; the caller gets Default() back, matching the teacher's
// tolerance of a missing srvconfig file (cmd/containerd/command's
// dumpConfig ignores os.IsNotExist).
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, errdefs.ErrInvalidArgument)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w: %v", path, errdefs.ErrInvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces §7's Fatal "invalid restart-mode value" case.
func (c *Config) Validate() error {
	switch c.RestartMode {
	case RestartModeList, RestartModeInteractive, RestartModeAutomatic:
		return nil
	default:
		return fmt.Errorf("restart_mode %q: %w", c.RestartMode, errdefs.ErrInvalidArgument)
	}
}

// ScanOptions projects Config onto the core's needrestart.Options,
// leaving restart_mode and defno for the CLI layer to consult on its
// own (the core never sees them, per §6).
func (c *Config) ScanOptions(unprivileged bool, currentUID int) needrestart.Options {
	overrides := make([]report.OverrideRule, len(c.OverrideRC))
	for i, o := range c.OverrideRC {
		overrides[i] = report.OverrideRule{Pattern: o.Pattern, Restart: o.Restart}
	}

	return needrestart.Options{
		Unprivileged: unprivileged,
		CurrentUID:   currentUID,
		Blacklist:    c.Blacklist,
		InterpScan:   c.InterpScan,
		BlacklistRC:  c.BlacklistRC,
		OverrideRC:   overrides,
		KernelHints:  c.KernelHints,
		Attribute:    attribute.DefaultOptions(),
	}
}
