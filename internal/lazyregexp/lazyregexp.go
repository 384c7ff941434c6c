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

// Package lazyregexp provides a lazily-compiled regexp, compiled on first
// use rather than at package init. Patterns sourced from user-supplied
// configuration (blacklist, blacklist_rc) are only compiled once they are
// actually needed, so an invalid pattern surfaces as an error at the call
// site instead of a panic at process start.
package lazyregexp

import (
	"regexp"
	"sync"
)

// Regexp wraps a *regexp.Regexp whose compilation is deferred until first
// use and memoized thereafter.
type Regexp struct {
	once sync.Once
	re   *regexp.Regexp
	src  string
	err  error
}

// New returns a Regexp that will compile src on first use.
func New(src string) *Regexp {
	return &Regexp{src: src}
}

func (r *Regexp) compile() {
	r.once.Do(func() {
		r.re, r.err = regexp.Compile(r.src)
	})
}

// Compile forces compilation and reports whether src was a valid pattern.
func (r *Regexp) Compile() error {
	r.compile()
	return r.err
}

// MatchString reports whether s matches the pattern. An invalid pattern
// never matches.
func (r *Regexp) MatchString(s string) bool {
	r.compile()
	if r.err != nil {
		return false
	}
	return r.re.MatchString(s)
}

// FindStringSubmatch delegates to the compiled regexp, returning nil if the
// pattern failed to compile or there was no match.
func (r *Regexp) FindStringSubmatch(s string) []string {
	r.compile()
	if r.err != nil {
		return nil
	}
	return r.re.FindStringSubmatch(s)
}

// FindAllString delegates to the compiled regexp, returning nil if the
// pattern failed to compile or there was no match.
func (r *Regexp) FindAllString(s string, n int) []string {
	r.compile()
	if r.err != nil {
		return nil
	}
	return r.re.FindAllString(s, n)
}

// String returns the source pattern.
func (r *Regexp) String() string {
	return r.src
}
