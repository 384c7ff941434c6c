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

// HookLineKind tags one line of hook-script output, per §6.
type HookLineKind string

const (
	HookLinePackage HookLineKind = "PACKAGE"
	HookLineRC      HookLineKind = "RC"
)

// HookLine is one `KIND|VALUE` line a hook script emits.
type HookLine struct {
	Kind  HookLineKind
	Value string
}

// HookRunner invokes the operator's configured hook scripts, in
// naturally-sorted order, against one exe path and returns each hook
// script's output lines as its own slice, in the order the hooks ran.
// Grouping is preserved rather than flattened so a caller can apply
// §4.5 step 7's "stop after the first hook that yielded any
// attribution" rule per hook instead of across the whole stream. A
// failing hook contributes an empty slice and does not abort the
// remaining hooks (§7: subprocess failures are recoverable).
type HookRunner interface {
	Run(exePath string) ([][]HookLine, error)
}

// ScriptReader loads an init script's contents by path, for LSB header
// and pidfile-reference parsing. Kept separate from HookRunner so a
// HookRunner implementation backed by something other than the local
// filesystem (unlikely, but this keeps the contract narrow) only needs
// to implement what it actually has.
type ScriptReader interface {
	ReadScript(path string) (string, error)
}

// PidfileReader reads the pid recorded in a pidfile, following symlinks
// only within a fixed scope directory (the default implementation uses
// /run; guards against a pidfile path escaping it via a crafted symlink).
type PidfileReader interface {
	ReadPidfile(path string) (pid int, ok bool)
}

// ServiceManagerProbe is the §4.5 step 6 fallback: given a candidate
// pid, reports the systemd service unit managing it, if any, as a bare
// name without the ".service" suffix, without relying on the cgroup
// pathway. Implementations must not shell out to `systemctl
// status` and parse its human-readable output via the source's
// documented $1/$2 regex-capture bug (§9 Open Questions) — the default
// implementation in pkg/collaborators uses the systemd D-Bus API
// instead.
type ServiceManagerProbe interface {
	UnitForPid(pid int) (name string, ok bool)
}
