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

// Package attribute implements the ProcessAttributor: given an obsolete
// pid, it decides the smallest controllable unit an operator would
// restart to clear it (§4.5). The decision order is a fixed chain, not a
// set of independent checks; the first step that fires wins.
package attribute

// Kind tags which variant of ControllableUnit a Unit holds.
type Kind string

const (
	KindUserSession        Kind = "user_session"
	KindServiceManagerRoot Kind = "service_manager_root"
	KindLegacyInit         Kind = "legacy_init"
	KindServiceUnit        Kind = "service_unit"
	KindInitScript         Kind = "init_script"
	KindUnknown            Kind = "unknown"
)

// Unit is the ControllableUnit result union from §4.5. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Unit struct {
	Kind Kind

	// Name is the systemd unit name (without ".service"); Path is the
	// init-script path. Exactly one is set, depending on Kind.
	Name string
	Path string

	// UID and SessionID are set for KindUserSession; SessionID is either
	// a controlling-tty path or a systemd "session #N" label.
	UID       int
	SessionID string
}

func (u Unit) String() string {
	switch u.Kind {
	case KindUserSession:
		return "user-session:" + u.SessionID
	case KindServiceManagerRoot:
		return "service-manager-root"
	case KindLegacyInit:
		return "legacy-init"
	case KindServiceUnit:
		return u.Name + ".service"
	case KindInitScript:
		return u.Path
	default:
		return "unknown"
	}
}
