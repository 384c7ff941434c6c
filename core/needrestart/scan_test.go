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

package needrestart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/proctable"
)

func writeProc(t *testing.T, root string, pid, ppid, uid int, comm, exeTarget string, deleted bool, ttyNr int) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprint(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	stat := fmt.Sprintf("%d (%s) S %d 0 0 %d 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n",
		pid, comm, ppid, ttyNr)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644))

	status := fmt.Sprintf("Name:\t%s\nUid:\t%d\t%d\t%d\t%d\n", comm, uid, uid, uid, uid)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644))

	target := exeTarget
	if deleted {
		target += " (deleted)"
	}
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "exe")))
}

// writeCurrentMaps gives pid a single file-backed executable mapping whose
// inode matches libPath on disk, so the classifier's map scan resolves it
// as Current rather than the pid's maps file simply being absent.
func writeCurrentMaps(t *testing.T, root string, pid int, libPath string) {
	t.Helper()
	fi, err := os.Stat(libPath)
	require.NoError(t, err)
	st, ok := fi.Sys().(*syscall.Stat_t)
	require.True(t, ok)

	line := fmt.Sprintf("08000000-08001000 r-xp 00000000 00:00 %d %s\n", st.Ino, libPath)
	require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprint(pid), "maps"), []byte(line), 0o644))
}

func TestScanAttributesDeletedExeToServiceUnitViaCgroup(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeProc(t, root, 1, 0, 0, "systemd", "/usr/lib/systemd/systemd", false, 0)
	writeProc(t, root, 100, 1, 0, "foo", "/usr/sbin/foo", true, 0)
	require.NoError(t, os.WriteFile(filepath.Join(root, "100", "cgroup"),
		[]byte("1:name=systemd:/system.slice/foo.service\n"), 0o644))

	old := proctable.Root
	proctable.Root = root
	defer func() { proctable.Root = old }()

	snap, err := proctable.New()
	require.NoError(t, err)

	opts := Options{Attribute: attribute.Options{ProcRoot: root, ServiceManagerMode: true, ServiceManagerExePath: "/usr/lib/systemd/systemd", LegacyInitExePath: "/sbin/init"}}
	rep, err := Scan(context.Background(), snap, opts, Collaborators{})
	require.NoError(t, err)
	require.Len(t, rep.Units, 1)
	require.Equal(t, "foo", rep.Units[0].Name)
}

func TestScanSkipsNonObsoletePids(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	libPath := filepath.Join(root, "lib.so")
	require.NoError(t, os.WriteFile(libPath, []byte("x"), 0o644))

	writeProc(t, root, 1, 0, 0, "systemd", "/usr/lib/systemd/systemd", false, 0)
	writeProc(t, root, 200, 1, 0, "ok", "/usr/bin/ok", false, 0)
	writeCurrentMaps(t, root, 1, libPath)
	writeCurrentMaps(t, root, 200, libPath)

	old := proctable.Root
	proctable.Root = root
	defer func() { proctable.Root = old }()

	snap, err := proctable.New()
	require.NoError(t, err)

	opts := Options{Attribute: attribute.Options{ProcRoot: root}}
	rep, err := Scan(context.Background(), snap, opts, Collaborators{})
	require.NoError(t, err)
	require.Empty(t, rep.Units)
	require.Empty(t, rep.UserSessions)
}
