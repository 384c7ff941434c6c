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

// Package version holds the build-time version stamp, following the
// teacher's version package convention of plain exported constants/vars
// a linker -X flag can override.
package version

var (
	// Package is the overall name of this project's source code.
	Package = "github.com/basuotian/needrestart"

	// Version holds the complete version number, set at build time via
	// -ldflags "-X .../version.Version=...".
	Version = "0.0.0+unknown"
)
