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

// Package model defines the data structures used throughout the application.
// This file contains "transient" models: values derived while a request is
// processed and never persisted on their own.
//
// Structs:
//   - VideoInfo: What the decoder learned about a source video when probing it.
//   - TimeWindow: The resolved [start, end) interval frames are sampled from.
//   - TokenUsage: Token accounting reported by a model backend.
//   - Extraction: The frames and metadata of one extraction run.
package model

import "fmt"

// VideoInfo is the result of probing a source video.
type VideoInfo struct {
	Path      string  `json:"path"`       // The path that was probed.
	Duration  float64 `json:"duration"`   // Total duration in seconds.
	NativeFPS float64 `json:"native_fps"` // The encoded frame rate of the first video stream.
	Width     int     `json:"width"`      // Source frame width in pixels.
	Height    int     `json:"height"`     // Source frame height in pixels.
	Codec     string  `json:"codec"`      // Codec name reported by the prober, e.g. "h264".
}

// TimeWindow is a resolved, clamped [Start, End) interval in seconds. It is
// produced by the time range resolver and never built by callers.
type TimeWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns End - Start.
func (w TimeWindow) Length() float64 {
	return w.End - w.Start
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", FormatTimecode(w.Start), FormatTimecode(w.End))
}

// TokenUsage reports how many tokens a single model call consumed.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens" bigquery:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" bigquery:"completion_tokens"`
}

// Extraction is everything one extraction run produced. Persisted is empty
// unless an output path was configured.
type Extraction struct {
	Video     *VideoInfo    `json:"video"`
	Window    TimeWindow    `json:"window"`
	Frames    FrameSequence `json:"-"`
	Persisted []string      `json:"persisted,omitempty"`
}
