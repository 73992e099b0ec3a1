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

import "fmt"

// ErrorCode identifies a category of canonicalization failure.
type ErrorCode string

const (
	// HndqCallLimitExceeded means the configured Hash N-Degree Quads call
	// budget was consumed before a result could be produced. The input is
	// rejected as a potential poison dataset; the caller may retry with a
	// higher Options.HndqCallLimit.
	HndqCallLimitExceeded ErrorCode = "hndq call limit exceeded"

	// BlankNodeIdCollisionWithCanonicalPrefix means an input blank node
	// identifier would collide with one the canonical issuer allocates.
	BlankNodeIdCollisionWithCanonicalPrefix ErrorCode = "blank node id collides with canonical prefix"

	// InvalidInput means a term or quad failed validation before reaching
	// the algorithm proper.
	InvalidInput ErrorCode = "invalid input"

	// HashAlgorithmUnsupported means Options.HashAlgorithm named a digest
	// this build does not provide.
	HashAlgorithmUnsupported ErrorCode = "hash algorithm unsupported"
)

// Error is a typed canonicalization failure. It carries no panicking control
// flow: all errors are pure data, returned to the caller unchanged.
type Error struct {
	Code    ErrorCode
	Details interface{}
}

// NewError creates a new instance of Error.
func NewError(code ErrorCode, details interface{}) *Error {
	return &Error{Code: code, Details: details}
}

func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Details)
	}
	return string(e.Code)
}

// Is reports whether target names the same error code, so callers can use
// errors.Is(err, canon.NewError(canon.HndqCallLimitExceeded, nil)); the
// target's Details are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
