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
	"strconv"
	"strings"

	"github.com/basuotian/needrestart/internal/lazyregexp"
)

// lsbHeader is the parsed `### BEGIN INIT INFO` ... `### END INIT INFO`
// block of a sysv init script, following the convention LSB-compliant
// distributions generate (see e.g. the kardianos/service sysv
// template's "Default-Start:" tag).
type lsbHeader struct {
	present      bool
	defaultStart []int
}

// parseLSBHeader scans an init script's contents for its LSB header
// block and extracts the Default-Start runlevels. present is false if
// no header block was found at all (a broken script, per §7: still
// usable as a last-resort candidate).
func parseLSBHeader(script string) lsbHeader {
	var h lsbHeader
	inBlock := false
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case "### BEGIN INIT INFO":
			inBlock = true
			h.present = true
			continue
		case "### END INIT INFO":
			return h
		}
		if !inBlock {
			continue
		}
		if rest, ok := cutLSBTag(trimmed, "Default-Start:"); ok {
			for _, tok := range strings.Fields(rest) {
				if n, err := strconv.Atoi(tok); err == nil {
					h.defaultStart = append(h.defaultStart, n)
				}
			}
		}
	}
	return h
}

// cutLSBTag strips the "# " comment marker and, if what remains starts
// with tag, returns the rest of the line.
func cutLSBTag(line, tag string) (string, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	if strings.HasPrefix(line, tag) {
		return strings.TrimSpace(strings.TrimPrefix(line, tag)), true
	}
	return "", false
}

func (h lsbHeader) startsAtRunlevel(runlevel int) bool {
	for _, rl := range h.defaultStart {
		if rl == runlevel {
			return true
		}
	}
	return false
}

var pidfileRe = lazyregexp.New(`/run/[A-Za-z0-9_.\-/]+\.pid`)

// pidfileReferences returns every /run/*.pid path literally referenced
// in an init script's body, in appearance order.
func pidfileReferences(script string) []string {
	return pidfileRe.FindAllString(script, -1)
}
