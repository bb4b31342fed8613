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

// Package cor (Chain of Responsibility) provides the building blocks the
// extraction and analysis workflows are assembled from. This file defines
// BaseContext, the property bag handed from command to command.
//
// Errors are kept in the order they were recorded.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	errOrder  []string
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty context. The Go context must be set with
// SetContext before the context is handed to a chain.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		errOrder:  make([]string, 0),
		tempFiles: make([]string, 0),
	}
}

// NewContext is shorthand for NewBaseContext followed by SetContext.
func NewContext(ctx context.Context) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	return c
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every temporary file registered with AddTempFile.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err under key, normally the name of the failing command.
// Recording a second error under the same key replaces the error but keeps
// its original position.
func (c *BaseContext) AddError(key string, err error) {
	if err == nil {
		return
	}
	if _, ok := c.errors[key]; !ok {
		c.errOrder = append(c.errOrder, key)
	}
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// GetErrorList returns the recorded errors in the order they were added.
func (c *BaseContext) GetErrorList() []error {
	out := make([]error, 0, len(c.errOrder))
	for _, key := range c.errOrder {
		out = append(out, c.errors[key])
	}
	return out
}

// FirstError returns the earliest recorded error, or nil.
func (c *BaseContext) FirstError() error {
	if len(c.errOrder) == 0 {
		return nil
	}
	return c.errors[c.errOrder[0]]
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
