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

// Package cor is a small chain of responsibility framework. The extraction
// pipeline and the Pub/Sub workflow are chains of commands that share one
// Context per run: each command reads its input key, writes its output key,
// and records failures instead of returning them.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Default keys for a command's primary input and output. BaseChain moves
// CtxOut to CtxIn between commands.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the state of one chain run: named values, the errors commands
// recorded, temp files to remove, and the Go context of the run.
type Context interface {
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records err for the command named key.
	AddError(key string, err error)
	GetErrors() map[string]error
	// GetErrorList returns the recorded errors in the order they were added.
	GetErrorList() []error
	// FirstError returns the earliest recorded error, or nil.
	FirstError() error
	HasErrors() bool

	// AddTempFile registers a file that Close removes.
	AddTempFile(file string)
	GetTempFiles() []string
	// Close removes every registered temp file. Defer it after NewContext.
	Close()
}

// Executable is anything that runs against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a chain. Implementations embed BaseCommand and
// override Execute, and IsExecutable when they accept missing input.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs its commands in order and is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure keeps running the remaining commands after one records
	// an error. The default is to stop.
	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
