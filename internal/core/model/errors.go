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

// Package model defines the data structures shared by the extraction pipeline,
// the analyzer and the outer surfaces (HTTP, Pub/Sub, BigQuery). This file
// defines the failure taxonomy.
//
// Every failure reported by the core carries a Kind. Callers inspect failures
// with `errors.Is(err, model.ErrVideoNotFound)` and reach the underlying cause
// with `errors.As` or `errors.Unwrap`.
package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure reported by the extraction pipeline or the analyzer.
type ErrorKind string

const (
	KindInvalidConfig        ErrorKind = "InvalidConfig"
	KindInvalidTimeFormat    ErrorKind = "InvalidTimeFormat"
	KindInvalidTimeRange     ErrorKind = "InvalidTimeRange"
	KindVideoNotFound        ErrorKind = "VideoNotFound"
	KindUnreadableVideo      ErrorKind = "UnreadableVideo"
	KindDecodeError          ErrorKind = "DecodeError"
	KindEmptyExtraction      ErrorKind = "EmptyExtraction"
	KindModelCall            ErrorKind = "ModelCallError"
	KindMalformedChatHistory ErrorKind = "MalformedChatHistory"
	KindPersistFrames        ErrorKind = "PersistFrames"
)

// Sentinels for errors.Is. They carry a Kind and nothing else.
var (
	ErrInvalidConfig        = &Error{Kind: KindInvalidConfig}
	ErrInvalidTimeFormat    = &Error{Kind: KindInvalidTimeFormat}
	ErrInvalidTimeRange     = &Error{Kind: KindInvalidTimeRange}
	ErrVideoNotFound        = &Error{Kind: KindVideoNotFound}
	ErrUnreadableVideo      = &Error{Kind: KindUnreadableVideo}
	ErrDecodeError          = &Error{Kind: KindDecodeError}
	ErrEmptyExtraction      = &Error{Kind: KindEmptyExtraction}
	ErrModelCall            = &Error{Kind: KindModelCall}
	ErrMalformedChatHistory = &Error{Kind: KindMalformedChatHistory}
	ErrPersistFrames        = &Error{Kind: KindPersistFrames}
)

// Error is the typed failure returned by the core.
type Error struct {
	Kind    ErrorKind // Failure classification.
	Op      string    // The operation that failed, e.g. "probe" or "ask".
	Message string    // Human readable detail.
	Err     error     // Underlying cause, if any.
}

// NewError builds an Error of the given kind. The message is formatted with fmt.Sprintf.
func NewError(kind ErrorKind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error of the given kind around a cause.
func WrapError(kind ErrorKind, op string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
