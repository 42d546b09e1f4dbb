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
// video generation pipeline. The pipeline is a strictly ordered sequence of
// phase commands; this file defines the interfaces those commands, chains,
// and the shared execution context must implement. Contexts additionally
// track which phases have completed so that a command can refuse to run
// before its predecessors have produced validated output.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are constant keys used to manage the primary data flow
// within a BaseChain.
const (
	// CtxIn is the default key for the primary input of a command. The BaseChain
	// will automatically populate the value of this key with the output from the
	// previous command.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command should place its primary output.
	// The BaseChain will pick up the value from this key to use as the input
	// for the next command.
	CtxOut = "__OUT__"
)

// Context defines the interface for the shared state object passed through a
// chain of commands. It acts as a property bag for a single pipeline run,
// carrying data, errors, completed-phase markers, and temp files between
// commands.
type Context interface {
	// SetContext sets the standard Go `context.Context`, used for cancellation
	// signals and OpenTelemetry trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go `context.Context`.
	GetContext() context.Context

	// Add stores a key-value pair in the context. This is the primary way
	// commands share data. It returns the Context for fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error produced by a command. The key should be the
	// name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns the map of all errors collected during the run.
	GetErrors() map[string]error

	// Get retrieves a value from the context by its key.
	Get(key string) interface{}

	// Remove deletes a key-value pair from the context.
	Remove(key string)

	// HasErrors checks if any errors have been recorded.
	HasErrors() bool

	// MarkPhaseComplete records that a named pipeline phase finished with
	// validated output. Phase commands call this as their final step.
	MarkPhaseComplete(phase string)

	// IsPhaseComplete reports whether the named phase has completed in this
	// run. Commands use this to enforce phase ordering before executing.
	IsPhaseComplete(phase string) bool

	// AddTempFile tracks a temporary file created during the run so that it
	// can be cleaned up when the context is closed.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// Close performs cleanup, such as deleting all temporary files. This
	// should be deferred at the start of a pipeline run.
	Close()
}

// Executable is a simple interface for any object that has a core execution logic.
type Executable interface {
	// Execute contains the primary business logic of the object. It takes a
	// Context object to read its inputs from and write its outputs to.
	Execute(context Context)
}

// Command represents an atomic, testable unit of work. Every pipeline phase
// is a Command.
type Command interface {
	Executable // Embeds the Execute method.

	// GetName returns the unique name of the command, used for logging and telemetry.
	GetName() string

	// GetInputParam returns the key the command uses to look up its primary
	// input in the Context.
	GetInputParam() string

	// GetOutputParam returns the key the command uses to store its primary
	// output in the Context.
	GetOutputParam() string

	// IsExecutable checks if the command can run with the current state of
	// the Context. This is a precondition check before calling Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns a metric counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns a metric counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain represents a sequence of commands. A Chain is itself a Command, which
// allows chains to be nested within other chains. The Chain orchestrates the
// execution of its child commands.
type Chain interface {
	Command // A Chain is a Command.

	// ContinueOnFailure tells the chain whether to keep executing after one
	// of its commands records an error in the context.
	ContinueOnFailure(bool) Chain

	// AddCommand adds a new command to the end of the execution sequence.
	AddCommand(command Command) Chain
}
