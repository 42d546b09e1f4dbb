// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package validate enforces the structural contracts between pipeline
// phases. Each phase output is checked before the run marks the phase
// complete, so a malformed record is caught at the seam where it was
// produced rather than three phases later. This file defines the two error
// types the checks produce.
package validate

import (
	"errors"
	"fmt"
)

// ValidationError reports a phase output that violates its contract. Phase
// names the producing phase so log lines and API responses can point at the
// right stage of the run.
type ValidationError struct {
	Phase  string // The phase whose output failed validation.
	Reason string // Human-readable description of the violation.
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("phase %q: %s", e.Phase, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(phase string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Phase: phase, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PhaseOrderError reports an attempt to run a phase before one of its
// predecessors has completed. It names both phases.
type PhaseOrderError struct {
	Phase    string // The phase that was asked to run.
	Requires string // The predecessor phase that has not completed.
}

func (e *PhaseOrderError) Error() string {
	return fmt.Sprintf("phase %q requires completed phase %q", e.Phase, e.Requires)
}

// IsPhaseOrderError reports whether err is (or wraps) a PhaseOrderError.
func IsPhaseOrderError(err error) bool {
	var pe *PhaseOrderError
	return errors.As(err, &pe)
}
