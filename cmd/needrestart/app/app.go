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

// Package app wires the urfave/cli entrypoint: it decodes configuration,
// builds the default collaborators, calls core/needrestart.Scan, and
// prints the batch-mode report. It is a thin wiring layer, per §6 — the
// interactive UI, progress bar, and restart execution named out of scope
// in spec.md §1 are not implemented here.
package app

import (
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/urfave/cli/v2"

	"github.com/basuotian/needrestart/core/needrestart"
	"github.com/basuotian/needrestart/pkg/collaborators"
	"github.com/basuotian/needrestart/pkg/config"
	"github.com/basuotian/needrestart/version"
)

func init() {
	cli.VersionPrinter = func(cliContext *cli.Context) {
		fmt.Println(cliContext.App.Name, version.Package, cliContext.App.Version)
	}
}

// New returns a *cli.App instance.
func New() *cli.App {
	app := cli.NewApp()
	app.Name = "needrestart"
	app.Version = version.Version
	app.Usage = "find obsolete processes and services that need a restart"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable per-pid diagnostic trace on stderr"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to needrestart.toml", Value: "/etc/needrestart/needrestart.toml"},
		&cli.BoolFlag{Name: "batch", Aliases: []string{"b"}, Usage: "Emit machine-parseable NEEDRESTART-* lines (the only mode this build implements)", Value: true},
		&cli.BoolFlag{Name: "unprivileged", Aliases: []string{"u"}, Usage: "Restrict scanning to the calling uid's own processes"},
		&cli.BoolFlag{Name: "kernelhints", Aliases: []string{"k"}, Usage: "Enable the kernel-upgrade hint pass"},
		&cli.BoolFlag{Name: "interpscan", Aliases: []string{"i"}, Usage: "Enable the interpreter source-file pass"},
		&cli.StringSliceFlag{Name: "blacklist", Usage: "Regex on exe path; matched pids are not classified"},
	}
	app.Action = runScan
	return app
}

func runScan(cliContext *cli.Context) error {
	if cliContext.Bool("verbose") {
		if err := log.SetLevel("debug"); err != nil {
			return err
		}
	}

	cfg, err := config.Load(cliContext.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if bl := cliContext.StringSlice("blacklist"); len(bl) > 0 {
		cfg.Blacklist = append(cfg.Blacklist, bl...)
	}
	if cliContext.Bool("kernelhints") {
		cfg.KernelHints = true
	}
	if cliContext.Bool("interpscan") {
		cfg.InterpScan = true
	}

	opts := cfg.ScanOptions(cliContext.Bool("unprivileged"), os.Getuid())
	opts.Attribute.Runlevel = detectRunlevel()

	snap, err := proctableSnapshot()
	if err != nil {
		return fmt.Errorf("snapshotting process table: %w", err)
	}

	collab := needrestart.Collaborators{
		Interp:   collaborators.NewInterpreterProber(),
		Probe:    collaborators.NewServiceManagerProbe(),
		Hooks:    collaborators.NewHookRunner("/usr/share/needrestart/hooks"),
		Scripts:  collaborators.ScriptReader{},
		Pidfiles: collaborators.NewPidfileReader(),
	}

	rep, err := needrestart.Scan(cliContext.Context, snap, opts, collab)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	return writeBatchReport(os.Stdout, rep)
}
