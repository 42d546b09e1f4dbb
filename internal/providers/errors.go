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

// Package providers contains the media generation backends the pipeline
// calls for images, video segments, and voiceover audio. This file defines
// the classified error type every backend returns, so callers can react to
// an auth failure differently from a quota or timeout condition without
// string matching.
package providers

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// ErrAuth means the credentials were rejected (HTTP 401/403 after the
	// key-parameter retry).
	ErrAuth ErrorKind = "auth"
	// ErrQuota means the service refused the call for rate or quota reasons
	// (HTTP 429).
	ErrQuota ErrorKind = "quota"
	// ErrTimeout means the call did not complete in time (HTTP 504 or a
	// client-side deadline).
	ErrTimeout ErrorKind = "timeout"
	// ErrGeneration covers every other generation failure.
	ErrGeneration ErrorKind = "generation"
)

// ProviderError is the error type all providers return. Provider names the
// backend so multi-provider fallback logs stay readable.
type ProviderError struct {
	Provider string    // The provider name, e.g. "vertex-imagen".
	Kind     ErrorKind // The failure classification.
	Message  string    // Human-readable detail.
	Err      error     // The underlying cause, if any.
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a classified provider error.
func NewProviderError(provider string, kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or ErrGeneration when err is
// not a ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrGeneration
}
