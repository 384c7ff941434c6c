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

package kernel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/containerd/log"

	"github.com/basuotian/needrestart/internal/lazyregexp"
	"github.com/basuotian/needrestart/pkg/naturalsort"
)

// DefaultImageGlobs matches the kernel image filename conventions found
// across the major distributions' boot directories.
var DefaultImageGlobs = []string{
	"vmlinuz-*",
	"vmlinuz",
	"kernel-*",
	"bzImage",
	"zImage",
}

var bannerRe = lazyregexp.New(`^Linux version (\S+) \([^)]*\)(.*)$`)

// image is one installed kernel image's parsed version banner.
type image struct {
	path    string
	release string
	banner  string
}

// Scanner implements the KernelScanner component (§4.6).
type Scanner struct {
	// ProcVersionPath is read for the running kernel's banner; default
	// "/proc/version".
	ProcVersionPath string

	// BootDir is scanned for installed kernel images; default "/boot".
	BootDir string

	// ImageGlobs overrides DefaultImageGlobs, for tests or unusual boot
	// layouts.
	ImageGlobs []string
}

// NewScanner returns a Scanner rooted at the real procfs and /boot.
func NewScanner() *Scanner {
	return &Scanner{ProcVersionPath: "/proc/version", BootDir: "/boot"}
}

// Scan implements §4.6's verdict algorithm.
func (s *Scanner) Scan() (Verdict, error) {
	runningBanner, err := s.readRunningBanner()
	if err != nil {
		return Verdict{}, err
	}
	m := bannerRe.FindStringSubmatch(runningBanner)
	if m == nil {
		return Verdict{Kind: Unknown}, nil
	}
	currentRelease := m[1]

	images := s.scanBootDir()

	var (
		parsed      bool
		greatest    string
		haveGreater bool
		abiMismatch bool
	)
	for _, img := range images {
		parsed = true
		if naturalsort.Less(currentRelease, img.release) {
			if !haveGreater || naturalsort.Less(greatest, img.release) {
				greatest, haveGreater = img.release, true
			}
			continue
		}
		if img.release == currentRelease && hasExtraTokens(img.banner, runningBanner) {
			abiMismatch = true
		}
	}

	switch {
	case haveGreater:
		return Verdict{Kind: VersionUpgrade, Current: currentRelease, Expected: greatest}, nil
	case abiMismatch:
		return Verdict{Kind: AbiUpgrade, Current: currentRelease, Expected: currentRelease}, nil
	case parsed:
		return Verdict{Kind: UpToDate, Current: currentRelease}, nil
	default:
		return Verdict{Kind: Unknown}, nil
	}
}

func (s *Scanner) readRunningBanner() (string, error) {
	data, err := os.ReadFile(s.procVersionPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Scanner) procVersionPath() string {
	if s.ProcVersionPath != "" {
		return s.ProcVersionPath
	}
	return "/proc/version"
}

func (s *Scanner) bootDir() string {
	if s.BootDir != "" {
		return s.BootDir
	}
	return "/boot"
}

func (s *Scanner) imageGlobs() []string {
	if len(s.ImageGlobs) > 0 {
		return s.ImageGlobs
	}
	return DefaultImageGlobs
}

// scanBootDir globs the boot directory for kernel images and parses
// whichever version banner each one embeds. Images that cannot be read
// or carry no recognisable banner are silently skipped (§7: recoverable).
func (s *Scanner) scanBootDir() []image {
	seen := make(map[string]bool)
	var images []image
	for _, glob := range s.imageGlobs() {
		matches, err := filepath.Glob(filepath.Join(s.bootDir(), glob))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			if img, ok := parseImage(path); ok {
				images = append(images, img)
			}
		}
	}
	return images
}

func parseImage(path string) (image, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.L.WithField("path", path).WithError(err).Debug("kernel: could not read boot image")
		return image{}, false
	}

	for _, s := range printableStrings(data, 16) {
		m := bannerRe.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		return image{path: path, release: m[1], banner: s}, true
	}
	return image{}, false
}

// hasExtraTokens reports whether imageBanner contains a whitespace token
// not present anywhere in runningBanner.
func hasExtraTokens(imageBanner, runningBanner string) bool {
	present := make(map[string]bool)
	for _, t := range strings.Fields(runningBanner) {
		present[t] = true
	}
	for _, t := range strings.Fields(imageBanner) {
		if !present[t] {
			return true
		}
	}
	return false
}
