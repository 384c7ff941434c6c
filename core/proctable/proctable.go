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

// Package proctable takes a single snapshot of every visible process on
// the host and exposes the per-pid attributes the rest of the scan
// pipeline needs. A Snapshot is immutable once built: a pid that
// disappears during the walk is left out, while a pid that disappears
// after the snapshot was taken is still returned by Lookup.
package proctable

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/containerd/log"
)

// PidInfo describes one process as observed at snapshot time.
type PidInfo struct {
	Pid  int
	PPid int
	Uid  int
	Comm string

	// TTYDevPath is the controlling terminal's device path, or "" if the
	// process has none (tty_nr == 0).
	TTYDevPath string

	// ExePath is the target of /proc/<pid>/exe, with any "(deleted)"
	// marker stripped. Empty if the link could not be read at all (the
	// process is a kernel thread, or vanished, or is unreadable in
	// unprivileged mode).
	ExePath string

	// ExeDeleted is true when the exe link carried a "(deleted)" marker,
	// in either its trailing or leading form.
	ExeDeleted bool
}

// Snapshot is a frozen, read-only view of the process table.
type Snapshot struct {
	byPid     map[int]PidInfo
	pids      []int
	selfPid   int
	selfPPid  int
}

// Root is the procfs mount point; overridable for tests.
var Root = "/proc"

// New walks procfs once and returns a frozen Snapshot. Processes that
// disappear mid-walk, or whose exe link cannot be resolved at all (kernel
// threads), are silently excluded.
func New() (*Snapshot, error) {
	entries, err := os.ReadDir(Root)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		byPid:    make(map[int]PidInfo),
		selfPid:  os.Getpid(),
		selfPPid: os.Getppid(),
	}

	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}

		info, ok := readPidInfo(pid)
		if !ok {
			continue
		}
		s.byPid[pid] = info
		s.pids = append(s.pids, pid)
	}

	sort.Ints(s.pids)
	return s, nil
}

func readPidInfo(pid int) (PidInfo, bool) {
	dir := filepath.Join(Root, strconv.Itoa(pid))

	exePath, deleted, err := readExeLink(dir)
	if err != nil {
		// Kernel threads have no exe link; a vanished pid fails the same
		// way. Either way this pid contributes nothing downstream.
		return PidInfo{}, false
	}

	ppid, ttyNr, err := readStat(dir)
	if err != nil {
		log.L.WithField("pid", pid).WithError(err).Debug("proctable: pid vanished reading stat")
		return PidInfo{}, false
	}

	uid, comm, err := readStatus(dir)
	if err != nil {
		log.L.WithField("pid", pid).WithError(err).Debug("proctable: pid vanished reading status")
		return PidInfo{}, false
	}

	return PidInfo{
		Pid:        pid,
		PPid:       ppid,
		Uid:        uid,
		Comm:       comm,
		TTYDevPath: ttyDevPath(ttyNr),
		ExePath:    exePath,
		ExeDeleted: deleted,
	}, true
}

// readExeLink reads /proc/<pid>/exe, stripping a "(deleted)" marker that
// the kernel may append (or, on some kernels, prepend) to the target when
// the backing inode has been unlinked.
func readExeLink(dir string) (path string, deleted bool, err error) {
	target, err := os.Readlink(filepath.Join(dir, "exe"))
	if err != nil {
		return "", false, err
	}

	const suffix = " (deleted)"
	if strings.HasSuffix(target, suffix) {
		return strings.TrimSuffix(target, suffix), true, nil
	}
	const prefix = "(deleted)"
	if strings.HasPrefix(target, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(target, prefix)), true, nil
	}
	return target, false, nil
}

// readStat parses /proc/<pid>/stat for ppid (field 4) and tty_nr (field 7).
// The comm field is parenthesized and may itself contain spaces or
// parentheses, so field numbers are counted from the last ')'.
func readStat(dir string) (ppid int, ttyNr int, err error) {
	data, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return 0, 0, err
	}
	line := strings.TrimSpace(string(data))

	open := strings.IndexByte(line, '(')
	close := strings.LastIndexByte(line, ')')
	if open < 0 || close < 0 || close < open {
		return 0, 0, os.ErrInvalid
	}

	rest := strings.Fields(line[close+1:])
	// rest[0] = state, rest[1] = ppid, rest[2] = pgrp, rest[3] = session,
	// rest[4] = tty_nr.
	if len(rest) < 5 {
		return 0, 0, os.ErrInvalid
	}
	ppid, err = strconv.Atoi(rest[1])
	if err != nil {
		return 0, 0, err
	}
	ttyNr, err = strconv.Atoi(rest[4])
	if err != nil {
		return 0, 0, err
	}
	return ppid, ttyNr, nil
}

// readStatus parses /proc/<pid>/status for the real uid and the command
// name.
func readStatus(dir string) (uid int, comm string, err error) {
	f, err := os.Open(filepath.Join(dir, "status"))
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	uid = -1
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "Name:"):
			comm = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "Uid:"):
			fields := strings.Fields(strings.TrimPrefix(line, "Uid:"))
			if len(fields) > 0 {
				uid, err = strconv.Atoi(fields[0])
				if err != nil {
					return 0, "", err
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, "", err
	}
	if uid < 0 {
		return 0, "", os.ErrInvalid
	}
	return uid, comm, nil
}

// ttyDevPath decodes a tty_nr device number into its /dev path, or ""
// if the process has no controlling terminal. Only the two controlling
// terminal device classes that matter for attribution are decoded: the
// legacy BSD-style virtual consoles (major 4) and the Unix98 pty slave
// range (major 136-143).
func ttyDevPath(ttyNr int) string {
	if ttyNr == 0 {
		return ""
	}
	major := (ttyNr >> 8) & 0xfff
	minor := (ttyNr & 0xff) | ((ttyNr >> 12) & 0xfff00)

	switch {
	case major == 4:
		return "/dev/tty" + strconv.Itoa(minor)
	case major >= 136 && major <= 143:
		return "/dev/pts/" + strconv.Itoa(minor+(major-136)*256)
	default:
		return ""
	}
}

// Pids returns every pid in the snapshot, ascending, matching the
// deterministic processing order required of the scan pipeline.
func (s *Snapshot) Pids() []int {
	return s.pids
}

// Lookup returns the recorded PidInfo for pid, or ok=false if the pid was
// not visible at snapshot time.
func (s *Snapshot) Lookup(pid int) (PidInfo, bool) {
	info, ok := s.byPid[pid]
	return info, ok
}

// Ignored reports whether pid is the scanner's own process or its parent;
// such pids are never classified.
func (s *Snapshot) Ignored(pid int) bool {
	return pid == s.selfPid || pid == s.selfPPid
}

// Ancestors walks from pid to pid 1 (or until a pid is no longer visible
// in the snapshot), returning the chain including pid itself. A visited
// set guards against cycles caused by pid reuse mid-scan.
func (s *Snapshot) Ancestors(pid int) []PidInfo {
	var chain []PidInfo
	visited := make(map[int]bool)

	cur := pid
	for {
		info, ok := s.byPid[cur]
		if !ok || visited[cur] {
			return chain
		}
		visited[cur] = true
		chain = append(chain, info)
		if cur == 1 {
			return chain
		}
		cur = info.PPid
	}
}
