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

package app

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/kernel"
	"github.com/basuotian/needrestart/core/proctable"
	"github.com/basuotian/needrestart/core/report"
	"github.com/basuotian/needrestart/version"
)

// kernelStatus maps a kernel.Verdict onto the NEEDRESTART-KSTA status
// code: 0 unknown, 1 up to date, 2 ABI-only difference, 3 a newer
// release is installed.
func kernelStatus(v kernel.Verdict) int {
	switch v.Kind {
	case kernel.UpToDate:
		return 1
	case kernel.AbiUpgrade:
		return 2
	case kernel.VersionUpgrade:
		return 3
	default:
		return 0
	}
}

// writeBatchReport emits §6's fixed-prefix machine-parseable lines.
func writeBatchReport(w io.Writer, rep *report.Report) error {
	if _, err := fmt.Fprintf(w, "NEEDRESTART-VER: %s\n", version.Version); err != nil {
		return err
	}

	for _, u := range rep.Units {
		if u.Kind == attribute.KindServiceUnit {
			if _, err := fmt.Fprintf(w, "NEEDRESTART-SVC: %s\n", u.Name); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "NEEDRESTART-PID: %s\n", u.String()); err != nil {
			return err
		}
	}

	for uid, bySession := range rep.UserSessions {
		name := strconv.Itoa(uid)
		if n, ok := rep.Usernames[uid]; ok {
			name = n
		}
		for sessionID, byComm := range bySession {
			for comm, pids := range byComm {
				for pid := range pids {
					if _, err := fmt.Fprintf(w, "NEEDRESTART-PID: %d (%s, user %s, session %s)\n", pid, comm, name, sessionID); err != nil {
						return err
					}
				}
			}
		}
	}

	if rep.Kernel != nil {
		if _, err := fmt.Fprintf(w, "NEEDRESTART-KCUR: %s\n", rep.Kernel.Current); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "NEEDRESTART-KEXP: %s\n", rep.Kernel.Expected); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "NEEDRESTART-KSTA: %d\n", kernelStatus(*rep.Kernel)); err != nil {
			return err
		}
	}

	return nil
}

// proctableSnapshot takes one snapshot of the real procfs.
func proctableSnapshot() (*proctable.Snapshot, error) {
	return proctable.New()
}

// detectRunlevel shells out to the `runlevel` utility (§6: "obtained
// from a utility; on failure, default to 2"). A malformed or missing
// utility is recoverable: the default Options runlevel already carries
// the fallback, so failures here just keep it.
func detectRunlevel() int {
	out, err := exec.Command("runlevel").Output()
	if err != nil {
		return 2
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return 2
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 2
	}
	return n
}
