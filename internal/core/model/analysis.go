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

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CallState tracks one analysis call.
type CallState string

const (
	StateIdle             CallState = "Idle"
	StateRequestAssembled CallState = "RequestAssembled"
	StateDispatched       CallState = "Dispatched"
	StateCompleted        CallState = "Completed"
	StateFailed           CallState = "Failed"
)

var allowedTransitions = map[CallState][]CallState{
	StateIdle:             {StateRequestAssembled, StateFailed},
	StateRequestAssembled: {StateDispatched, StateFailed},
	StateDispatched:       {StateCompleted, StateFailed},
}

// RequestMode tells whether a request came from Ask or Chat.
type RequestMode string

const (
	ModeAsk  RequestMode = "ask"
	ModeChat RequestMode = "chat"
)

// AnalysisRequest is built for a single Ask or Chat call and discarded after
// the response. Exactly one of Prompt and Messages is meaningful, per Mode.
type AnalysisRequest struct {
	ID        string
	Mode      RequestMode
	Frames    FrameSequence
	Prompt    string
	Messages  []ChatMessage
	Signature Signature
	Config    *AnalyzerConfig
	State     CallState
	CreatedAt time.Time
}

// NewAnalysisRequest creates a request in the Idle state with a fresh ID.
func NewAnalysisRequest(mode RequestMode, frames FrameSequence, sig Signature, cfg *AnalyzerConfig) *AnalysisRequest {
	return &AnalysisRequest{
		ID:        uuid.NewString(),
		Mode:      mode,
		Frames:    frames,
		Signature: sig,
		Config:    cfg,
		State:     StateIdle,
		CreatedAt: time.Now(),
	}
}

// Transition moves the request to the next state, rejecting moves the state
// machine does not allow (including any move out of a terminal state).
func (r *AnalysisRequest) Transition(to CallState) error {
	for _, next := range allowedTransitions[r.State] {
		if next == to {
			r.State = to
			return nil
		}
	}
	return fmt.Errorf("illegal call state transition %s -> %s", r.State, to)
}

// AnalysisResponse is the schema-typed result of an analysis call. Fields
// holds one entry per output field of the signature that was used.
type AnalysisResponse struct {
	RequestID  string         `json:"request_id"`
	Model      string         `json:"model"`
	Signature  string         `json:"signature"`
	Fields     map[string]any `json:"fields"`
	FrameCount int            `json:"frame_count"`
	Usage      TokenUsage     `json:"usage"`
}

// Field returns an output field by name.
func (r *AnalysisResponse) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Text returns an output field rendered as a string ("" if absent).
func (r *AnalysisResponse) Text(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Answer returns the "answer" output.
func (r *AnalysisResponse) Answer() string {
	return r.Text(FieldAnswer)
}

// Reasoning returns the "reasoning" output, present when a chain-of-thought module was used.
func (r *AnalysisResponse) Reasoning() string {
	return r.Text(FieldReasoning)
}
