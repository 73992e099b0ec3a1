// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package canon

import (
	"github.com/creasty/defaults"
	"github.com/go-logr/logr"
)

const (
	// SHA256 selects the default RDFC-1.0 digest.
	SHA256 = "SHA-256"
	// SHA384 selects the alternate digest.
	SHA384 = "SHA-384"
)

// Unlimited disables the HNDQ call limit. Prefer a concrete limit in
// production; this exists for callers who have already bounded input size
// some other way. It is -1, not 0, because 0 is the Go zero value of
// Options.HndqCallLimit and must mean "use the spec default" instead.
const Unlimited = -1

// Options configures a canonicalization run. NewOptions returns the
// spec-mandated defaults; the entry points in canonicalize.go also accept
// nil or partially filled Options and fill unset fields via
// (*Options).withDefaults.
type Options struct {
	// HashAlgorithm chooses the digest used by H1DQ, HRBN and HNDQ.
	HashAlgorithm string `default:"SHA-256"`

	// HndqCallLimit caps HNDQ permutation iterations across the whole
	// canonicalization run. Exceeding it yields HndqCallLimitExceeded.
	// Set to Unlimited to disable the cap.
	HndqCallLimit int `default:"4000"`

	// Logger receives structured observability events: at V(1), the start
	// of the run, the end of first-degree hashing, each top-level HNDQ
	// entry/exit and the end of the run; at V(2), each first-degree hash
	// computed and each HNDQ result, recursive calls included. There is no
	// separate event for each of the six CA steps. It is a pure observer:
	// it never affects the result. The zero value is logr's discard logger.
	Logger logr.Logger
}

// NewOptions returns Options populated with the spec defaults (SHA-256,
// a 4000-call HNDQ budget, a discarding logger).
func NewOptions() *Options {
	opts := &Options{}
	// defaults.Set only fills zero-valued fields, so Logger (also a zero
	// value at this point) is handled separately below rather than via a
	// struct tag — logr.Logger isn't a primitive defaults understands.
	_ = defaults.Set(opts)
	opts.Logger = logr.Discard()
	return opts
}

// Copy creates a shallow copy of Options. Logger is an interface-like value
// and is safe to share across copies.
func (opts *Options) Copy() *Options {
	cp := *opts
	return &cp
}

func (opts *Options) withDefaults() *Options {
	if opts == nil {
		return NewOptions()
	}
	cp := opts.Copy()
	if cp.HashAlgorithm == "" {
		cp.HashAlgorithm = SHA256
	}
	if cp.HndqCallLimit == 0 {
		// Zero is ambiguous with the Go zero value, so the spec's
		// Unlimited sentinel for "no cap" is -1, not 0: a caller who
		// never set the field gets the spec default instead of an
		// accidental unbounded run.
		cp.HndqCallLimit = 4000
	}
	if cp.Logger.GetSink() == nil {
		cp.Logger = logr.Discard()
	}
	return cp
}
