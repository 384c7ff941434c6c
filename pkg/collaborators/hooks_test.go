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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basuotian/needrestart/core/attribute"
)

func writeHook(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func TestHookRunnerCollectsLinesInNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "20-late", "#!/bin/sh\necho RC|restart\n")
	writeHook(t, dir, "3-early", "#!/bin/sh\necho PACKAGE|libfoo\n")

	h := NewHookRunner(dir)
	groups, err := h.Run("/usr/sbin/foo")
	require.NoError(t, err)
	require.Equal(t, [][]attribute.HookLine{
		{{Kind: attribute.HookLinePackage, Value: "libfoo"}},
		{{Kind: attribute.HookLineRC, Value: "restart"}},
	}, groups)
}

func TestHookRunnerSkipsFailingScriptButKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "1-bad", "#!/bin/sh\nexit 1\n")
	writeHook(t, dir, "2-good", "#!/bin/sh\necho PACKAGE|libbar\n")

	h := NewHookRunner(dir)
	groups, err := h.Run("/usr/sbin/foo")
	require.NoError(t, err)
	require.Equal(t, [][]attribute.HookLine{
		nil,
		{{Kind: attribute.HookLinePackage, Value: "libbar"}},
	}, groups)
}

func TestHookRunnerIgnoresUnrecognisedLineKinds(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "1-noisy", "#!/bin/sh\necho DEBUG|whatever\necho PACKAGE|libbaz\n")

	h := NewHookRunner(dir)
	groups, err := h.Run("/usr/sbin/foo")
	require.NoError(t, err)
	require.Equal(t, [][]attribute.HookLine{
		{{Kind: attribute.HookLinePackage, Value: "libbaz"}},
	}, groups)
}
