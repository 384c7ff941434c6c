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

// Package kernel compares the running kernel's release against the
// kernel images installed in the boot directory and decides whether a
// reboot would pick up something newer (§4.6).
package kernel

// VerdictKind tags which KernelVerdict variant a Verdict holds.
type VerdictKind string

const (
	UpToDate       VerdictKind = "up_to_date"
	AbiUpgrade     VerdictKind = "abi_upgrade"
	VersionUpgrade VerdictKind = "version_upgrade"
	Unknown        VerdictKind = "unknown"
)

// Verdict is the KernelScanner's result (§3's KernelVerdict). Current
// and Expected are release tokens (e.g. "5.10.0-1-amd64"); both are
// empty for Unknown.
type Verdict struct {
	Kind     VerdictKind
	Current  string
	Expected string
}
