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

package naturalsort

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareOrdersNumericRunsByValue(t *testing.T) {
	require.True(t, Less("item2", "item10"))
	require.False(t, Less("item10", "item2"))
	require.Equal(t, 0, Compare("item007", "item7"))
}

func TestCompareNonNumericLexicographic(t *testing.T) {
	require.True(t, Less("abc", "abd"))
	require.True(t, Less("S01foo", "S02bar"))
}

func TestSortHookFilenames(t *testing.T) {
	names := []string{"rc.20-bar", "rc.3-foo", "rc.100-baz"}
	sort.Slice(names, func(i, j int) bool { return Less(names[i], names[j]) })
	require.Equal(t, []string{"rc.3-foo", "rc.20-bar", "rc.100-baz"}, names)
}

func TestSortKernelReleases(t *testing.T) {
	releases := []string{"5.10.0-2-amd64", "5.9.0-1-amd64", "5.10.0-1-amd64"}
	sort.Slice(releases, func(i, j int) bool { return Less(releases[i], releases[j]) })
	require.Equal(t, []string{"5.9.0-1-amd64", "5.10.0-1-amd64", "5.10.0-2-amd64"}, releases)
}

func TestCompareEmptyStrings(t *testing.T) {
	require.Equal(t, 0, Compare("", ""))
	require.True(t, Less("", "a"))
}
