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

package memscan

import "fmt"

// Candidates returns the textual "hh:hh" device-id encodings that a
// kernel's memory-map output might use for the given numeric device id,
// plus the literal "00:00" fallback used by platforms that report no
// device id for file-backed mappings at all.
func Candidates(dev uint64) []string {
	modernMajor := ((dev >> 8) & 0xfff) | ((dev >> 32) &^ 0xfff)
	modernMinor := (dev & 0xff) | ((dev >> 12) &^ 0xff)

	traditionalMajor := dev >> 8
	traditionalMinor := dev & 0xff

	modern := fmt.Sprintf("%02x:%02x", modernMajor, modernMinor)
	traditional := fmt.Sprintf("%02x:%02x", traditionalMajor, traditionalMinor)

	candidates := []string{modern}
	if traditional != modern {
		candidates = append(candidates, traditional)
	}
	if traditional != "00:00" && modern != "00:00" {
		candidates = append(candidates, "00:00")
	}
	return candidates
}

// Matches reports whether devText — a mapping's reported device-id text —
// identifies the same device as dev, either directly via Candidates or
// via the anonymous/virtual block device exemption: any device text
// beginning with "00:" is accepted, because some filesystems (overlay,
// copy-on-write) report a device id for mappings that has no
// corresponding stat() result at all. Without this clause every process
// backed by such a filesystem would be falsely reported obsolete.
func Matches(devText string, dev uint64) bool {
	if len(devText) >= 3 && devText[:3] == "00:" {
		return true
	}
	for _, c := range Candidates(dev) {
		if c == devText {
			return true
		}
	}
	return false
}
