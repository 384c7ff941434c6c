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

import "testing"

// FuzzParseLSBHeader feeds arbitrary init-script text at the LSB header
// parser; a hand-edited or truncated script must never panic.
func FuzzParseLSBHeader(f *testing.F) {
	f.Add(sampleScript)
	f.Add("### BEGIN INIT INFO\n")
	f.Add("")
	f.Fuzz(func(t *testing.T, script string) {
		h := parseLSBHeader(script)
		_ = h.startsAtRunlevel(2)
		_ = pidfileReferences(script)
	})
}

// FuzzExtractFromCgroupPath feeds arbitrary cgroup paths at the segment
// extractor; it must never panic regardless of how the path is shaped.
func FuzzExtractFromCgroupPath(f *testing.F) {
	f.Add("/system.slice/docker.service")
	f.Add("/user.slice/user-1000.slice/session-3.scope")
	f.Add("")
	f.Fuzz(func(t *testing.T, path string) {
		_, _ = extractFromCgroupPath(path)
	})
}
