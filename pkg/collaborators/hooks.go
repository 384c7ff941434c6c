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

// Package collaborators provides the default, host-backed implementations
// of the interfaces core/attribute and core/classify declare: a hook
// runner that shells out to operator-supplied scripts, an LSB-script
// reader, a /run-scoped pidfile reader, and a systemd D-Bus unit probe.
// None of this is reachable from the core directly; cmd/needrestart wires
// it in.
package collaborators

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/containerd/log"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/pkg/naturalsort"
)

// HookRunner is the default attribute.HookRunner: it globs HookDir for
// executable scripts, runs them in natural-sort order against exePath,
// and collects their `KIND|VALUE` stdout lines. A script that fails to
// start or exits nonzero contributes no lines; the remaining scripts
// still run (§7: subprocess failures are recoverable).
type HookRunner struct {
	HookDir string
	Timeout time.Duration
}

// NewHookRunner returns a HookRunner rooted at the conventional
// needrestart hook directory.
func NewHookRunner(hookDir string) *HookRunner {
	return &HookRunner{HookDir: hookDir, Timeout: 5 * time.Second}
}

func (h *HookRunner) Run(exePath string) ([][]attribute.HookLine, error) {
	scripts, err := filepath.Glob(filepath.Join(h.HookDir, "*"))
	if err != nil {
		return nil, fmt.Errorf("listing hooks in %s: %w", h.HookDir, err)
	}
	sort.Slice(scripts, func(i, j int) bool { return naturalsort.Less(scripts[i], scripts[j]) })

	groups := make([][]attribute.HookLine, 0, len(scripts))
	for _, script := range scripts {
		out, err := h.runOne(script, exePath)
		if err != nil {
			log.L.WithField("script", script).WithError(err).Debug("collaborators: hook failed")
			groups = append(groups, nil)
			continue
		}
		groups = append(groups, out)
	}
	return groups, nil
}

func (h *HookRunner) runOne(script, exePath string) ([]attribute.HookLine, error) {
	timeout := h.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script, exePath)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var lines []attribute.HookLine
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		kind, value, ok := strings.Cut(sc.Text(), "|")
		if !ok {
			continue
		}
		switch attribute.HookLineKind(kind) {
		case attribute.HookLinePackage, attribute.HookLineRC:
			lines = append(lines, attribute.HookLine{Kind: attribute.HookLineKind(kind), Value: value})
		}
	}
	return lines, nil
}
