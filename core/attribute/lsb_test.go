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
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleScript = `#!/bin/sh
### BEGIN INIT INFO
# Provides:          xsvc
# Required-Start:    $local_fs $remote_fs $network $syslog
# Default-Start:     2 3 4 5
# Default-Stop:      0 1 6
# Short-Description: X service
### END INIT INFO

PIDFILE="/run/xsvc.pid"
test -x /usr/sbin/xsvcd || exit 5
`

func TestParseLSBHeaderExtractsDefaultStart(t *testing.T) {
	h := parseLSBHeader(sampleScript)
	require.True(t, h.present)
	require.Equal(t, []int{2, 3, 4, 5}, h.defaultStart)
	require.True(t, h.startsAtRunlevel(3))
	require.False(t, h.startsAtRunlevel(1))
}

func TestParseLSBHeaderAbsentWhenNoBlock(t *testing.T) {
	h := parseLSBHeader("#!/bin/sh\necho hi\n")
	require.False(t, h.present)
	require.Empty(t, h.defaultStart)
}

func TestPidfileReferencesFindsRunPaths(t *testing.T) {
	refs := pidfileReferences(sampleScript)
	require.Equal(t, []string{"/run/xsvc.pid"}, refs)
}
