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

package report

import (
	"path/filepath"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/kernel"
	"github.com/basuotian/needrestart/internal/lazyregexp"
)

// Builder accumulates attributions from one scan and applies §4.7's
// policies when the Report is finalized.
type Builder struct {
	units       map[string]attribute.Unit
	userSession map[int]map[string]map[string]map[int]bool
	blacklistRC []*lazyregexp.Regexp
	overrides   []OverrideRule
}

// NewBuilder constructs a Builder. blacklistRC patterns are matched
// against unitBlacklistKey(u) (§4.7's "unit blacklist"); overrideRC is
// carried through to the Report untouched.
func NewBuilder(blacklistRC []string, overrideRC []OverrideRule) *Builder {
	b := &Builder{
		units:       make(map[string]attribute.Unit),
		userSession: make(map[int]map[string]map[string]map[int]bool),
		overrides:   overrideRC,
	}
	for _, p := range blacklistRC {
		b.blacklistRC = append(b.blacklistRC, lazyregexp.New(p))
	}
	return b
}

// Add records one obsolete pid's attribution. comm is the process name,
// used only for the user-session table's grouping key.
func (b *Builder) Add(u attribute.Unit, comm string, pid int) {
	if u.Kind == attribute.KindUserSession {
		bySession, ok := b.userSession[u.UID]
		if !ok {
			bySession = make(map[string]map[string]map[int]bool)
			b.userSession[u.UID] = bySession
		}
		byComm, ok := bySession[u.SessionID]
		if !ok {
			byComm = make(map[string]map[int]bool)
			bySession[u.SessionID] = byComm
		}
		pids, ok := byComm[comm]
		if !ok {
			pids = make(map[int]bool)
			byComm[comm] = pids
		}
		pids[pid] = true
		return
	}

	if b.blacklisted(u) {
		return
	}
	b.units[u.String()] = u
}

func (b *Builder) blacklisted(u attribute.Unit) bool {
	name := unitBlacklistKey(u)
	for _, re := range b.blacklistRC {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// unitBlacklistKey returns the name a blacklist_rc pattern is matched
// against: the bare unit name for ServiceUnit, the script basename for
// InitScript, and the kind label for the remaining variants.
func unitBlacklistKey(u attribute.Unit) string {
	switch u.Kind {
	case attribute.KindServiceUnit:
		return u.Name
	case attribute.KindInitScript:
		return filepath.Base(u.Path)
	default:
		return string(u.Kind)
	}
}

// Build finalizes the Report. kernelVerdict may be nil when
// KernelScanner (kernelhints) is disabled.
//
// A ServiceUnit and an InitScript sharing the same bare name never
// coexist in the result (§4.5 step 6 and step 7's duplicate exception):
// whichever pid was attributed to the InitScript is a weaker signal than
// any pid attributed directly to the matching ServiceUnit, so the
// InitScript is dropped. This is enforced here, once, across every pid's
// accumulated unit, rather than per pid during attribution, since a
// ServiceUnit and the InitScript it shadows are commonly attributed to
// different pids.
func (b *Builder) Build(kernelVerdict *kernel.Verdict) *Report {
	serviceNames := make(map[string]bool)
	for _, u := range b.units {
		if u.Kind == attribute.KindServiceUnit {
			serviceNames[u.Name] = true
		}
	}

	units := make([]attribute.Unit, 0, len(b.units))
	for _, u := range b.units {
		if u.Kind == attribute.KindInitScript && serviceNames[filepath.Base(u.Path)] {
			continue
		}
		units = append(units, u)
	}

	return &Report{
		Units:        sortedUnits(units),
		UserSessions: b.userSession,
		Kernel:       kernelVerdict,
		Overrides:    b.overrides,
	}
}
