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
	"path/filepath"
	"strconv"

	"github.com/containerd/cgroups/v3/cgroup1"
	"github.com/coreos/go-systemd/v22/unit"

	"github.com/basuotian/needrestart/internal/lazyregexp"
)

var (
	sessionScopeRe = lazyregexp.New(`user-(\d+)\.slice/session-(\d+)\.scope`)
	serviceUnitRe  = lazyregexp.New(`([^/]+)\.service$`)
)

// serviceManagerControllerPath reads /proc/<pid>/cgroup and returns the
// path recorded against the service manager's controller. A host may be
// running legacy cgroups (named "name=systemd" hierarchy), the unified
// cgroup v2 hierarchy (the empty controller list), or a hybrid of both;
// rather than trust a single process-wide mode detection, both keys are
// tried directly against this pid's own cgroup file. ok is false if the
// cgroup file could not be read or carries neither.
func serviceManagerControllerPath(procRoot string, pid int) (path string, ok bool) {
	file := filepath.Join(procRoot, strconv.Itoa(pid), "cgroup")
	controllers, err := cgroup1.ParseCgroupFile(file)
	if err != nil {
		return "", false
	}

	if path, ok = controllers["name=systemd"]; ok {
		return path, true
	}
	path, ok = controllers[""]
	return path, ok
}

// extractFromCgroupPath implements §4.5 step 5's segment extraction. A
// session scope is checked before a bare ".service" suffix since a user
// session's scope path also ends in "...scope", never "...service", but
// checking order matters only for clarity here, not correctness.
//
// This is a regex *test*, not an assignment: §9's open question about
// the source's "=" vs "=~" bug is resolved by never treating a regex
// literal as anything but a boolean condition.
func extractFromCgroupPath(path string) (Unit, bool) {
	if m := sessionScopeRe.FindStringSubmatch(path); m != nil {
		uid, err := strconv.Atoi(m[1])
		if err != nil {
			return Unit{}, false
		}
		return Unit{Kind: KindUserSession, UID: uid, SessionID: "session #" + m[2]}, true
	}
	if m := serviceUnitRe.FindStringSubmatch(path); m != nil {
		return Unit{Kind: KindServiceUnit, Name: unit.UnitNameUnescape(m[1])}, true
	}
	return Unit{}, false
}

func cgroupProbe(procRoot string, pid int) (Unit, bool) {
	path, ok := serviceManagerControllerPath(procRoot, pid)
	if !ok {
		return Unit{}, false
	}
	return extractFromCgroupPath(path)
}
