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
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
)

// FuzzCompare guards against panics on arbitrary kernel-release-like and
// hook-filename-like input; Compare must always terminate and must agree
// with itself when operands are swapped.
func FuzzCompare(f *testing.F) {
	f.Add([]byte("5.10.0-1-amd64\x005.10.0-2-amd64"))
	f.Add([]byte("rc.3-foo\x00rc.20-bar"))
	f.Fuzz(func(t *testing.T, data []byte) {
		c := fuzz.NewConsumer(data)
		a, err := c.GetString()
		if err != nil {
			return
		}
		b, err := c.GetString()
		if err != nil {
			return
		}

		got := Compare(a, b)
		inv := Compare(b, a)
		if (got > 0 && inv > 0) || (got < 0 && inv < 0) {
			t.Fatalf("Compare(%q, %q)=%d and Compare(%q, %q)=%d are not antisymmetric", a, b, got, b, a, inv)
		}
		if (got == 0) != (inv == 0) {
			t.Fatalf("Compare(%q, %q)=%d but Compare(%q, %q)=%d disagree on equality", a, b, got, b, a, inv)
		}
	})
}
