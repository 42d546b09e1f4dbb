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

// Package cor (Chain of Responsibility) provides the building blocks for the
// video generation pipeline. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
//
// The context is the shared state for one pipeline run. Each phase command
// reads its input from the context, does its work, and writes its result
// back for the next phase. In addition to the generic data bag this
// implementation keeps:
//   - an error map keyed by the command that failed (`errors`),
//   - the set of completed phase names (`phases`), which backs the
//     phase-ordering checks in the phase commands,
//   - a list of temporary files to delete when the run ends (`tempFiles`),
//   - the standard Go `context.Context` for cancellation and trace data.
package cor

import (
	"context"
	"log"
	"os"
)

// BaseContext is the default implementation of the Context interface. It holds
// the shared state for a pipeline run.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value data shared between commands.
	errors    map[string]error       // Errors keyed by the command name that produced them.
	phases    map[string]bool        // Names of phases that completed with validated output.
	tempFiles []string               // Paths of temporary files that need cleanup.
	context   context.Context        // The standard Go context for cancellation and tracing.
}

// NewBaseContext is the constructor for BaseContext. It initializes all the
// internal maps and slices so they are ready for use.
//
// Outputs:
//   - Context: A new, empty context object.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		phases:    make(map[string]bool),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the underlying standard Go context. This is used by the
// BaseChain to manage the context for OpenTelemetry spans.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close is a cleanup method that should be called at the end of a run.
// It removes any temporary files tracked by the context.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		err := os.Remove(file)
		if err != nil {
			log.Printf("failed to remove temporary file '%s': %v\n", file, err)
		}
	}
}

// Add stores a key-value pair in the context's data map.
//
// Outputs:
//   - Context: The context instance, allowing for fluent method chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile adds a file path to the list of temporary files that need cleanup.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the slice of all tracked temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError adds an error to the context's error map, keyed by the command name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of all errors collected during the run.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value from the context's data map by its key.
//
// Outputs:
//   - interface{}: The stored value, or `nil` if the key does not exist.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair from the context's data map.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors checks if any errors have been added to the context.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// MarkPhaseComplete records that the named phase produced validated output.
func (c *BaseContext) MarkPhaseComplete(phase string) {
	c.phases[phase] = true
}

// IsPhaseComplete reports whether the named phase completed in this run.
func (c *BaseContext) IsPhaseComplete(phase string) bool {
	return c.phases[phase]
}
