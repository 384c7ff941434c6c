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

// Package report assembles the final scan Report: the deduplicated unit
// set, the nested user-session table, and the kernel verdict, with the
// unit-blacklist and override-map policies applied (§4.7).
package report

import (
	"sort"

	"github.com/moby/sys/user"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/kernel"
)

// OverrideRule pairs a regex against a restart-policy boolean; the core
// records the ordered list untouched for the caller to consume (§4.7).
type OverrideRule struct {
	Pattern string
	Restart bool
}

// Report is the §3 Report aggregate.
type Report struct {
	Units []attribute.Unit

	// UserSessions is uid -> session_id -> comm -> set of pids.
	UserSessions map[int]map[string]map[string]map[int]bool

	Kernel *kernel.Verdict

	// Overrides is OverrideRule carried through untouched, for the CLI
	// layer to consult when deciding what to actually restart.
	Overrides []OverrideRule

	// Usernames maps a uid appearing in UserSessions to its resolved
	// name, for diagnostic display only. Populated by ResolveUsernames;
	// nil (not empty) until then.
	Usernames map[int]string
}

// ResolveUsernames fills r.Usernames for every uid referenced in
// UserSessions. Resolution failures are left unmapped; display code
// falls back to the bare uid. This never affects classification or
// membership — purely cosmetic, per §3's unprivileged-mode invariant
// being enforced on the numeric uid alone.
func (r *Report) ResolveUsernames() {
	r.Usernames = make(map[int]string, len(r.UserSessions))
	for uid := range r.UserSessions {
		u, err := user.LookupUid(uid)
		if err != nil {
			continue
		}
		r.Usernames[uid] = u.Name
	}
}

// sortedUnits returns Units sorted for deterministic output.
func sortedUnits(units []attribute.Unit) []attribute.Unit {
	out := make([]attribute.Unit, len(units))
	copy(out, units)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
