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
// video generation pipeline. This file defines the `BaseChain`, the default
// implementation of the `Chain` interface.
//
// Logic Flow:
// A `BaseChain` is itself a `Command`, allowing chains to be nested within
// other chains. Its primary role is to execute a list of `Command` objects in
// a predefined order while piping data between them.
//
//  1. `Execute` is called with a shared context.
//  2. An OpenTelemetry span is opened for the whole chain.
//  3. The chain iterates over its commands. Before each one it checks the
//     context for prior errors; unless `continueOnFailure` is set, the chain
//     stops at the first failed command.
//  4. Each command runs inside its own child span so that every phase of the
//     pipeline shows up as a distinct unit in the trace.
//  5. After a command runs, the value it stored under `CtxOut` is moved to
//     `CtxIn` (the "flip-flop"), making it the next command's input.
//  6. When all commands have run (or the chain stopped on an error), the
//     chain span is closed with a success or failure status.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain is the default implementation of the Chain interface. It holds a
// slice of commands to be executed sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // Whether to keep running subsequent commands after one fails.
	commands          []Command // The ordered list of commands that this chain will execute.
}

// NewBaseChain is the constructor for BaseChain.
//
// Inputs:
//   - name: A string name for this chain instance, used for logging and telemetry.
//
// Outputs:
//   - *BaseChain: A pointer to the newly instantiated chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure is a builder method that sets the error handling behavior
// of the chain. If true, the chain runs all of its commands even when some of
// them record errors; if false (the default), the chain stops at the first
// failure.
//
// Outputs:
//   - Chain: The chain instance, allowing for fluent method chaining.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand is a builder method that adds a command to the end of the chain's
// execution sequence.
//
// Outputs:
//   - Chain: The chain instance, allowing for fluent method chaining.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable checks if the chain can be executed. For a chain, this simply
// means that a valid Go context exists.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute orchestrates the sequential execution of all commands in the chain.
//
// Inputs:
//   - chCtx: The shared `cor.Context` for the entire pipeline run.
func (c *BaseChain) Execute(chCtx Context) {
	// Keep a reference to the Go context that this chain started with.
	parentCtx := chCtx.GetContext()

	// Start an OpenTelemetry span for the entire chain's execution.
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		// Start a child span for the individual command so each pipeline
		// phase is traced as its own step.
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		commandSpan.SetName(command.GetName())

		// Check if a previous command in the chain has already failed.
		// If so, and if we are not configured to continue, stop processing.
		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if command.IsExecutable(chCtx) {
			// Run the command under its own span context so nested work is
			// traced as children of this command.
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			// Reset to the chain's context so the next command's span is a
			// sibling, not a grandchild, of this one.
			chCtx.SetContext(outerCtx)
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error during or after command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		// Flip-flop the input and output to create the pipeline effect: the
		// value placed in CtxOut by the command that just ran becomes the
		// CtxIn of the next command in the loop.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
