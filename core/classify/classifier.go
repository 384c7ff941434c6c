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

// Package classify implements the per-pid obsolescence decision: deleted
// exe, blacklist, memory-map staleness, then (optionally) an interpreter
// source-file check, in that order. The first check that fires wins.
package classify

import (
	"github.com/containerd/errdefs"
	"github.com/containerd/log"

	"github.com/basuotian/needrestart/core/memscan"
	"github.com/basuotian/needrestart/core/proctable"
	"github.com/basuotian/needrestart/internal/lazyregexp"
)

// ReasonKind tags why a pid was classified obsolete.
type ReasonKind string

const (
	DeletedExe        ReasonKind = "deleted_exe"
	MissingBacking    ReasonKind = "missing_backing"
	StaleMapping      ReasonKind = "stale_mapping"
	InterpreterSource ReasonKind = "interpreter_source"
)

// Reason describes why a pid is obsolete. Path is empty for DeletedExe.
type Reason struct {
	Kind ReasonKind
	Path string
}

// Result is the classifier's verdict for one pid.
type Result struct {
	Obsolete bool
	Reason   Reason
}

// InterpreterProber is the collaborator that, given a pid believed to be
// running an interpreted program, reports whether the script it is
// actually executing has since been replaced on disk. When ok is true,
// path names the stale source file.
type InterpreterProber interface {
	ObsoleteSource(pid int, exe string) (path string, ok bool)
}

// Options configures a Classifier; it mirrors the relevant subset of the
// core's external configuration surface (blacklist, interpscan,
// unprivileged mode).
type Options struct {
	// Blacklist holds regexes matched against a pid's exe path; a match
	// excludes the pid from classification entirely (emits Current).
	Blacklist []string

	// InterpScan enables the interpreter-prober pass.
	InterpScan bool

	// Unprivileged restricts classification to pids owned by CurrentUID.
	Unprivileged bool
	CurrentUID   int
}

// Classifier implements the ObsolescenceClassifier component.
type Classifier struct {
	scanner   *memscan.Scanner
	blacklist []*lazyregexp.Regexp
	interp    InterpreterProber
	opts      Options
}

// New builds a Classifier. interp may be nil if InterpScan is disabled.
func New(scanner *memscan.Scanner, interp InterpreterProber, opts Options) *Classifier {
	c := &Classifier{
		scanner: scanner,
		interp:  interp,
		opts:    opts,
	}
	for _, p := range opts.Blacklist {
		c.blacklist = append(c.blacklist, lazyregexp.New(p))
	}
	return c
}

// Classify returns the obsolescence verdict for one pid. An error return
// means the pid vanished mid-scan (errdefs.ErrNotFound) and should be
// silently dropped by the caller, per §4.3's failure semantics.
func (c *Classifier) Classify(info proctable.PidInfo) (Result, error) {
	if c.opts.Unprivileged && info.Uid != c.opts.CurrentUID {
		return Result{}, nil
	}

	if info.ExeDeleted {
		return Result{Obsolete: true, Reason: Reason{Kind: DeletedExe}}, nil
	}

	for _, re := range c.blacklist {
		if re.MatchString(info.ExePath) {
			log.L.WithField("pid", info.Pid).WithField("exe", info.ExePath).Debug("classify: exe blacklisted")
			return Result{}, nil
		}
	}

	verdict, err := c.scanner.Scan(info.Pid)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Result{}, err
		}
		return Result{}, nil
	}
	if verdict.Obsolete {
		kind := StaleMapping
		if verdict.Reason == memscan.ReasonMissingBacking {
			kind = MissingBacking
		}
		return Result{Obsolete: true, Reason: Reason{Kind: kind, Path: verdict.Path}}, nil
	}

	if c.opts.InterpScan && c.interp != nil {
		if path, ok := c.interp.ObsoleteSource(info.Pid, info.ExePath); ok {
			return Result{Obsolete: true, Reason: Reason{Kind: InterpreterSource, Path: path}}, nil
		}
	}

	return Result{}, nil
}
