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

// Package memscan reads one process's file-backed memory mappings and
// compares each backing file against what is actually on disk, yielding
// a verdict of Current or Obsolete. It also implements the device-id
// candidate-encoding function used to compare a mapping's reported
// device against a stat() result (see device.go).
package memscan

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/containerd/errdefs"
	"github.com/moby/sys/mountinfo"

	"github.com/basuotian/needrestart/internal/lazyregexp"
)

// Reason tags why a pid's memory mappings were found obsolete.
type Reason string

const (
	ReasonMissingBacking Reason = "missing_backing"
	ReasonStaleMapping   Reason = "stale_mapping"
)

// Verdict is the per-pid outcome of a map scan.
type Verdict struct {
	Obsolete bool
	Reason   Reason
	Path     string
}

// Mapping is one file-backed virtual-memory region from a pid's map
// table.
type Mapping struct {
	VAddrRange string
	Perms      string
	Offset     uint64
	DevText    string
	Inode      uint64
	Path       string
}

var (
	sharedMemRe  = lazyregexp.New(`^/(dev/shm/|SYSV)`)
	drmRe        = lazyregexp.New(`^/dev/dri/`)
	deviceTreeRe = lazyregexp.New(`^/(sys/firmware/devicetree|proc/device-tree)/`)
	asyncIORe    = lazyregexp.New(`^/\[aio\](\s*\(deleted\))?$`)
)

// Scanner reads map tables rooted at ProcRoot (default "/proc").
type Scanner struct {
	ProcRoot string
}

// NewScanner returns a Scanner rooted at the real procfs.
func NewScanner() *Scanner {
	return &Scanner{ProcRoot: "/proc"}
}

// Scan reads pid's memory map and returns the first obsolete mapping it
// finds, or Current if none. Per spec, the first obsolete mapping wins
// and the remainder of the map is not read.
//
// Failure semantics: an unreadable map file means the pid vanished mid
// scan (errdefs.ErrNotFound is returned so the caller can drop it
// silently); a stat() failure on an individual backing file ends the
// scan for this pid inconclusively, i.e. as Current — obsolescence is
// never reported when it cannot be proven.
func (s *Scanner) Scan(pid int) (Verdict, error) {
	path := fmt.Sprintf("%s/%d/maps", s.ProcRoot, pid)
	f, err := os.Open(path)
	if err != nil {
		return Verdict{}, fmt.Errorf("proc maps vanished for pid %d: %w", pid, errdefs.ErrNotFound)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m, ok := parseMapsLine(sc.Text())
		if !ok || skip(m) {
			continue
		}

		fi, err := os.Stat(m.Path)
		if err != nil {
			if os.IsNotExist(err) {
				if isScratchPath(m.Path) {
					continue
				}
				return Verdict{Obsolete: true, Reason: ReasonMissingBacking, Path: m.Path}, nil
			}
			// Unreadable for some other reason: inconclusive, not obsolete.
			return Verdict{}, nil
		}

		stat, ok := fi.Sys().(*syscall.Stat_t)
		if !ok {
			return Verdict{}, nil
		}

		if uint64(stat.Ino) != m.Inode || !Matches(m.DevText, uint64(stat.Dev)) {
			return Verdict{Obsolete: true, Reason: ReasonStaleMapping, Path: m.Path}, nil
		}
	}
	if err := sc.Err(); err != nil {
		return Verdict{}, fmt.Errorf("proc maps vanished for pid %d: %w", pid, errdefs.ErrNotFound)
	}

	return Verdict{}, nil
}

// skip reports whether a Mapping is exempt from obsolescence checks:
// non-file-backed, non-executable, zero-inode, or matching one of the
// known pseudo-path conventions (shared memory handles, DRM device
// handles, device-tree paths, async I/O pseudo paths).
func skip(m Mapping) bool {
	if m.Path == "" || m.Path[0] != '/' || m.Inode == 0 {
		return true
	}
	if !strings.Contains(m.Perms, "x") {
		return true
	}
	if sharedMemRe.MatchString(m.Path) || drmRe.MatchString(m.Path) ||
		deviceTreeRe.MatchString(m.Path) || asyncIORe.MatchString(m.Path) {
		return true
	}
	return false
}

// parseMapsLine parses one space-separated /proc/<pid>/maps line:
// vaddr-range perms offset dev inode [path].
func parseMapsLine(line string) (Mapping, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Mapping{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Mapping{}, false
	}
	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Mapping{}, false
	}

	m := Mapping{
		VAddrRange: fields[0],
		Perms:      fields[1],
		Offset:     offset,
		DevText:    fields[3],
		Inode:      inode,
	}
	if len(fields) >= 6 {
		m.Path = strings.Join(fields[5:], " ")
	}
	return m, true
}

// isScratchPath reports whether path lives under a tmpfs-backed scratch
// convention (e.g. a temporary-file directory), in which case a missing
// backing file is expected and not a sign of an obsolete process. Mount
// enumeration is tried first (covers any tmpfs mount, not just the
// well-known ones); if that fails — e.g. /proc/self/mountinfo is
// unreadable in unprivileged mode — a plain os.TempDir() prefix check is
// used as a Recoverable-error fallback.
func isScratchPath(path string) bool {
	mounts, err := mountinfo.GetMounts(mountinfo.FSTypeFilter("tmpfs"))
	if err == nil {
		for _, m := range mounts {
			if strings.HasPrefix(path, m.Mountpoint+"/") || path == m.Mountpoint {
				return true
			}
		}
		return false
	}
	return strings.HasPrefix(path, os.TempDir())
}
