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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/moby/sys/symlink"
)

// ScriptReader is the default attribute.ScriptReader: a plain filesystem
// read.
type ScriptReader struct{}

func (ScriptReader) ReadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PidfileReader is the default attribute.PidfileReader. Scope restricts
// symlink resolution so a pidfile path can never escape the configured
// run directory via a crafted symlink (§4.5 step 7).
type PidfileReader struct {
	Scope string
}

// NewPidfileReader returns a PidfileReader scoped to the conventional
// /run directory.
func NewPidfileReader() *PidfileReader {
	return &PidfileReader{Scope: "/run"}
}

func (r *PidfileReader) ReadPidfile(path string) (int, bool) {
	scope := r.Scope
	if scope == "" {
		scope = "/run"
	}
	resolved, err := symlink.FollowSymlinkInScope(path, scope)
	if err != nil {
		return 0, false
	}

	f, err := os.Open(resolved)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return 0, false
	}
	return pid, true
}
