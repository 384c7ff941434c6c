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

package collaborators

import (
	"fmt"
	"os"
	"strings"

	"github.com/basuotian/needrestart/internal/lazyregexp"
)

// interpreterNames are the exe basenames the default InterpreterProber
// recognizes as script interpreters whose real obsolescence depends on
// the script they're running, not on the interpreter binary itself.
var interpreterNames = map[string]bool{
	"perl": true, "perl5": true,
	"python": true, "python2": true, "python3": true,
	"ruby": true,
	"bash": true, "sh": true, "dash": true,
	"node": true,
}

var scriptArgRe = lazyregexp.New(`^[^-].*\.(pl|py|rb|sh|js)$`)

// InterpreterProber is the default classify.InterpreterProber: it reads
// a pid's cmdline, and when the exe is a recognised interpreter, treats
// the first script-looking argument as the file actually being
// executed. If that file no longer exists on disk, the pid is reported
// obsolete with the script path as its reason.
type InterpreterProber struct {
	ProcRoot string
}

// NewInterpreterProber returns an InterpreterProber rooted at the real
// procfs.
func NewInterpreterProber() *InterpreterProber {
	return &InterpreterProber{ProcRoot: "/proc"}
}

func (p *InterpreterProber) ObsoleteSource(pid int, exe string) (string, bool) {
	if !interpreterNames[lastPathElement(exe)] {
		return "", false
	}

	root := p.ProcRoot
	if root == "" {
		root = "/proc"
	}
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/cmdline", root, pid))
	if err != nil {
		return "", false
	}

	for _, arg := range strings.Split(strings.TrimRight(string(data), "\x00"), "\x00") {
		if arg == "" || !strings.HasPrefix(arg, "/") || !scriptArgRe.MatchString(arg) {
			continue
		}
		if _, err := os.Stat(arg); os.IsNotExist(err) {
			return arg, true
		}
		return "", false
	}
	return "", false
}

func lastPathElement(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
