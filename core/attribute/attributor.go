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

package attribute

import (
	"github.com/containerd/log"

	"github.com/basuotian/needrestart/core/proctable"
)

// Options configures an Attributor; default values match a typical
// systemd-managed host.
type Options struct {
	// ProcRoot is the procfs mount point (overridable for tests).
	ProcRoot string

	// ServiceManagerExePath is pid 1's exe path under a service manager
	// (§4.5 step 3).
	ServiceManagerExePath string

	// LegacyInitExePath is pid 1's exe path under sysvinit (§4.5 step 4).
	LegacyInitExePath string

	// Runlevel is the current sysv runlevel, used to filter hook-derived
	// init scripts by their LSB Default-Start tag. Per §6, callers
	// default this to 2 when the runlevel utility is unavailable.
	Runlevel int

	// ServiceManagerMode enables the cgroup probe (§4.5 step 5); it is
	// false on hosts with no service-manager controller to read.
	ServiceManagerMode bool
}

// DefaultOptions returns Options matching a systemd-managed Linux host.
func DefaultOptions() Options {
	return Options{
		ProcRoot:              "/proc",
		ServiceManagerExePath: "/usr/lib/systemd/systemd",
		LegacyInitExePath:     "/sbin/init",
		Runlevel:              2,
		ServiceManagerMode:    true,
	}
}

// Attributor implements the ProcessAttributor component (§4.5).
type Attributor struct {
	opts    Options
	probe   ServiceManagerProbe
	hooks   HookRunner
	scripts ScriptReader
	pidfile PidfileReader
}

// New builds an Attributor. probe may be nil to disable step 6, and
// hooks, scripts and pidfile may be nil to disable step 7; the chain
// still falls through to Unknown.
func New(opts Options, probe ServiceManagerProbe, hooks HookRunner, scripts ScriptReader, pidfile PidfileReader) *Attributor {
	return &Attributor{opts: opts, probe: probe, hooks: hooks, scripts: scripts, pidfile: pidfile}
}

// Attribute runs the §4.5 decision chain for one obsolete pid, observed
// in snap, under the given privilege mode. unprivileged restricts the
// parent-pivot step (§4.5 step 2) to the pid's own foreign-parent case.
func (a *Attributor) Attribute(snap *proctable.Snapshot, info proctable.PidInfo, unprivileged bool) Unit {
	if info.TTYDevPath != "" {
		return Unit{Kind: KindUserSession, UID: info.Uid, SessionID: info.TTYDevPath}
	}

	candidate := a.pivot(snap, info, unprivileged)

	if candidate.Pid == 1 {
		if candidate.ExePath == a.opts.ServiceManagerExePath {
			return Unit{Kind: KindServiceManagerRoot}
		}
		if candidate.ExePath == a.opts.LegacyInitExePath {
			return Unit{Kind: KindLegacyInit}
		}
	}

	if a.opts.ServiceManagerMode {
		if u, ok := cgroupProbe(a.procRoot(), candidate.Pid); ok {
			return u
		}
	}

	if a.probe != nil {
		if name, ok := a.probe.UnitForPid(candidate.Pid); ok {
			return Unit{Kind: KindServiceUnit, Name: name}
		}
	}

	if u, ok := a.runHooks(candidate.ExePath, candidate.Pid); ok {
		return u
	}

	return Unit{Kind: KindUnknown}
}

func (a *Attributor) procRoot() string {
	if a.opts.ProcRoot != "" {
		return a.opts.ProcRoot
	}
	return "/proc"
}

// pivot implements §4.5 step 2: in privileged mode, walk up to the
// nearest ancestor whose parent is pid 1 (the topmost process inside
// whatever service-manager scope or init script owns it); in
// unprivileged mode, stop at the pid itself once its parent is no
// longer visible in the snapshot.
func (a *Attributor) pivot(snap *proctable.Snapshot, info proctable.PidInfo, unprivileged bool) proctable.PidInfo {
	if unprivileged {
		if _, ok := snap.Lookup(info.PPid); !ok {
			return info
		}
	}

	chain := snap.Ancestors(info.Pid)
	for _, anc := range chain {
		if anc.PPid == 1 {
			return anc
		}
	}
	if len(chain) > 0 {
		return chain[len(chain)-1]
	}
	return info
}

// runHooks implements §4.5 step 7. The HookRunner contract returns one
// line group per hook script, in naturally-sorted order, so each
// group is resolved independently and the scan stops at the first hook
// that yields any attribution — a later hook never overrides an earlier
// one. Suppressing a candidate that duplicates an already-known
// ServiceUnit name is done by report.Builder, which is the only place
// that sees every pid's attribution.
func (a *Attributor) runHooks(exePath string, candidatePid int) (Unit, bool) {
	if a.hooks == nil {
		return Unit{}, false
	}

	groups, err := a.hooks.Run(exePath)
	if err != nil {
		log.L.WithError(err).Debug("attribute: hook runner failed")
		return Unit{}, false
	}

	for _, lines := range groups {
		if u, ok := a.resolveHookGroup(lines, candidatePid); ok {
			return u, true
		}
	}
	return Unit{}, false
}

// resolveHookGroup implements §4.5 step 7's per-hook resolution: a
// perfect pidfile hit wins immediately; otherwise the first RC line with
// no usable header, or with a matching runlevel but no pidfile hit, is
// promoted once none of its siblings in this same hook produced a
// pidfile hit.
func (a *Attributor) resolveHookGroup(lines []HookLine, candidatePid int) (Unit, bool) {
	var candidate string
	haveCandidate := false

	for _, line := range lines {
		if line.Kind != HookLineRC {
			// HookLinePackage is informational only; not used for attribution.
			continue
		}
		path := line.Value
		script, ok := a.readScript(path)
		if !ok {
			continue
		}
		header := parseLSBHeader(script)
		if !header.present {
			if !haveCandidate {
				candidate, haveCandidate = path, true
			}
			continue
		}
		if !header.startsAtRunlevel(a.opts.Runlevel) {
			continue
		}
		for _, pf := range pidfileReferences(script) {
			pid, ok := a.readPidfile(pf)
			if ok && pid == candidatePid {
				return Unit{Kind: KindInitScript, Path: path}, true
			}
		}
		if !haveCandidate {
			candidate, haveCandidate = path, true
		}
	}

	if !haveCandidate {
		return Unit{}, false
	}
	return Unit{Kind: KindInitScript, Path: candidate}, true
}

func (a *Attributor) readScript(path string) (string, bool) {
	if a.scripts == nil {
		return "", false
	}
	content, err := a.scripts.ReadScript(path)
	if err != nil {
		return "", false
	}
	return content, true
}

func (a *Attributor) readPidfile(path string) (int, bool) {
	if a.pidfile == nil {
		return 0, false
	}
	pid, ok := a.pidfile.ReadPidfile(path)
	return pid, ok
}
