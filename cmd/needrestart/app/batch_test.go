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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basuotian/needrestart/core/attribute"
	"github.com/basuotian/needrestart/core/kernel"
	"github.com/basuotian/needrestart/core/report"
)

func TestWriteBatchReportEmitsServiceAndKernelLines(t *testing.T) {
	rep := &report.Report{
		Units: []attribute.Unit{
			{Kind: attribute.KindServiceUnit, Name: "sshd"},
			{Kind: attribute.KindInitScript, Path: "/etc/init.d/cron"},
		},
		Kernel: &kernel.Verdict{Kind: kernel.VersionUpgrade, Current: "5.10.0-1-amd64", Expected: "5.10.0-2-amd64"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBatchReport(&buf, rep))

	out := buf.String()
	require.Contains(t, out, "NEEDRESTART-VER: ")
	require.Contains(t, out, "NEEDRESTART-SVC: sshd\n")
	require.Contains(t, out, "NEEDRESTART-PID: /etc/init.d/cron\n")
	require.Contains(t, out, "NEEDRESTART-KCUR: 5.10.0-1-amd64\n")
	require.Contains(t, out, "NEEDRESTART-KEXP: 5.10.0-2-amd64\n")
	require.Contains(t, out, "NEEDRESTART-KSTA: 3\n")
}

func TestWriteBatchReportOmitsKernelLinesWhenDisabled(t *testing.T) {
	rep := &report.Report{}

	var buf bytes.Buffer
	require.NoError(t, writeBatchReport(&buf, rep))

	require.NotContains(t, buf.String(), "NEEDRESTART-KSTA")
}

func TestWriteBatchReportFormatsUserSessionPids(t *testing.T) {
	rep := &report.Report{
		UserSessions: map[int]map[string]map[string]map[int]bool{
			1000: {"/dev/pts/2": {"app": {400: true}}},
		},
		Usernames: map[int]string{1000: "alice"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBatchReport(&buf, rep))
	require.Contains(t, buf.String(), "NEEDRESTART-PID: 400 (app, user alice, session /dev/pts/2)\n")
}

func TestKernelStatusMapping(t *testing.T) {
	require.Equal(t, 1, kernelStatus(kernel.Verdict{Kind: kernel.UpToDate}))
	require.Equal(t, 2, kernelStatus(kernel.Verdict{Kind: kernel.AbiUpgrade}))
	require.Equal(t, 3, kernelStatus(kernel.Verdict{Kind: kernel.VersionUpgrade}))
	require.Equal(t, 0, kernelStatus(kernel.Verdict{Kind: kernel.Unknown}))
}

func TestDetectRunlevelFallsBackWhenUtilityMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	require.Equal(t, 2, detectRunlevel())
}
