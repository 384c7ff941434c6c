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

// Package needrestart orchestrates one full scan: ProcTable snapshot →
// ObsolescenceClassifier → ProcessAttributor → Report, wiring in the
// collaborators described by §6. It is the single entry point implied
// by §2's data-flow diagram and §5 (single-threaded, sequential,
// ascending-pid order, no internal suspension points).
package needrestart

import (
	"context"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/classify"
	"github.com/basuotian/needrestart/core/kernel"
	"github.com/basuotian/needrestart/core/memscan"
	"github.com/basuotian/needrestart/core/proctable"
	"github.com/basuotian/needrestart/core/report"
)

// Options mirrors §6's Configuration surface, minus the fields that are
// opaque to the core (restart_mode, defno) which the CLI layer carries
// through on its own.
type Options struct {
	// Unprivileged restricts classification and attribution to the
	// calling uid; CurrentUID is that uid.
	Unprivileged bool
	CurrentUID   int

	// Blacklist is matched against exe paths (§6: "blacklist").
	Blacklist []string

	// InterpScan enables the interpreter-prober pass (§6: "interpscan").
	InterpScan bool

	// BlacklistRC and OverrideRC apply to attributed units (§4.7).
	BlacklistRC []string
	OverrideRC  []report.OverrideRule

	// KernelHints enables the KernelScanner pass (§6: "kernelhints").
	KernelHints bool

	Attribute attribute.Options
}

// Collaborators bundles the external capabilities named in §6. Any
// field may be nil to disable the pass it backs.
type Collaborators struct {
	Interp   classify.InterpreterProber
	Probe    attribute.ServiceManagerProbe
	Hooks    attribute.HookRunner
	Scripts  attribute.ScriptReader
	Pidfiles attribute.PidfileReader
}

// scanContext owns the per-scan mutable state (§9 "Mutable module-level
// tables"): the accumulating report builder and the components it feeds
// from. Constructed at Scan entry, discarded at return; nothing here
// persists across scans.
type scanContext struct {
	classifier *classify.Classifier
	attributor *attribute.Attributor
	builder    *report.Builder
}

// Scan runs one complete scan over snap and returns the resulting
// Report. Pids are processed in snap.Pids()'s ascending order, per §5;
// a pid that vanishes mid-scan is silently dropped, never reported.
func Scan(ctx context.Context, snap *proctable.Snapshot, opts Options, collab Collaborators) (*report.Report, error) {
	procRoot := opts.Attribute.ProcRoot
	if procRoot == "" {
		procRoot = "/proc"
	}

	sc := &scanContext{
		classifier: classify.New(&memscan.Scanner{ProcRoot: procRoot}, collab.Interp, classify.Options{
			Blacklist:    opts.Blacklist,
			InterpScan:   opts.InterpScan,
			Unprivileged: opts.Unprivileged,
			CurrentUID:   opts.CurrentUID,
		}),
		attributor: attribute.New(opts.Attribute, collab.Probe, collab.Hooks, collab.Scripts, collab.Pidfiles),
		builder:    report.NewBuilder(opts.BlacklistRC, opts.OverrideRC),
	}

	for _, pid := range snap.Pids() {
		if snap.Ignored(pid) {
			continue
		}
		info, ok := snap.Lookup(pid)
		if !ok {
			continue
		}

		result, err := sc.classifier.Classify(info)
		if err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !result.Obsolete {
			continue
		}

		log.G(ctx).WithField("pid", pid).WithField("reason", result.Reason.Kind).Debug("needrestart: obsolete pid")

		unit := sc.attributor.Attribute(snap, info, opts.Unprivileged)
		sc.builder.Add(unit, info.Comm, info.Pid)
	}

	var kernelVerdict *kernel.Verdict
	if opts.KernelHints {
		v, err := kernel.NewScanner().Scan()
		if err != nil {
			log.G(ctx).WithError(err).Warn("needrestart: kernel scan failed")
		} else {
			kernelVerdict = &v
		}
	}

	rep := sc.builder.Build(kernelVerdict)
	rep.ResolveUsernames()
	return rep, nil
}
