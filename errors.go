// Copyright 2026 Open Targets.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package otgraph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a string error type usable for constant sentinel errors.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrNoScan is returned when a definition has no scan operation.
	ErrNoScan = Error("definition has no scan operation")

	// ErrNoID is returned when a definition has no primary id expression.
	ErrNoID = Error("definition has no id expression")
)

// Reasons carried by RowErrors.
const (
	ReasonLookup         = "lookup"
	ReasonNull           = "null value"
	ReasonType           = "unexpected type"
	ReasonNoSeparator    = "no separator"
	ReasonNormalisation  = "normalisation rejected"
	ReasonIndexRange     = "index out of range"
	ReasonTransform      = "transform failed"
	ReasonNotSequence    = "exploded field is not a sequence"
	ReasonUnresolvedPath = "path crosses unexploded sequence"
)

// RowError is a failure that concerns a single row (or exploded item). It is
// recovered by skipping that item; the stream carries on.
type RowError struct {
	Reason string
	Field  *Field
	Value  interface{}
	Err    error
}

func (e *RowError) Error() string {
	msg := e.Reason
	if e.Field != nil {
		msg = fmt.Sprintf("%s at %v", msg, e.Field)
	}
	if e.Value != nil {
		msg = fmt.Sprintf("%s (value %#v)", msg, e.Value)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Cause lets errors.Cause see through a RowError.
func (e *RowError) Cause() error { return e.Err }

func rowErr(reason string, f *Field, val interface{}) *RowError {
	return &RowError{Reason: reason, Field: f, Value: val}
}

func rowErrf(reason string, val interface{}, format string, args ...interface{}) *RowError {
	return &RowError{Reason: reason, Value: val, Err: errors.Errorf(format, args...)}
}

// AsRowError finds a RowError in err's wrap chain.
func AsRowError(err error) (*RowError, bool) {
	for err != nil {
		if re, ok := err.(*RowError); ok {
			return re, true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return nil, false
		}
		err = cause.Cause()
	}
	return nil, false
}

// IsRowError reports whether err is (or wraps) a RowError.
func IsRowError(err error) bool {
	_, ok := AsRowError(err)
	return ok
}
