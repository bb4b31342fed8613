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

// Package model defines the data structures shared across the application.
// This file defines `ExtractorConfig`, the immutable set of options that
// drives a single frame extraction.
//
// Logic Flow:
//  1. Callers build a config with `NewExtractorConfig` and a list of options.
//  2. Each option records a value on a private builder.
//  3. The constructor validates the combination eagerly: resize dimensions and
//     resize scale are mutually exclusive, numeric fields must be in range and
//     time strings must parse.
//  4. On success the caller receives a read-only config that can be shared by
//     concurrent extractions.
package model

// Dims is an absolute frame size in pixels.
type Dims struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// ExtractorConfig holds the options of one extraction. All fields are optional
// and unexported; use the accessor methods. A nil pointer accessor result means
// "not set".
type ExtractorConfig struct {
	resizeDims  *Dims    // Exact output size. Mutually exclusive with resizeScale.
	resizeScale *float64 // Scale factor in (0, 1].
	fps         *float64 // Target sampling rate. Nil keeps the native rate.
	startTime   *string  // "HH:MM:SS.mmm", nil means start of video.
	endTime     *string  // "HH:MM:SS.mmm", nil means end of video.
	maxFrames   *int     // Upper bound on the number of frames returned.
	outputPath  string   // Directory or gs:// prefix to persist frames to. Empty disables persistence.
}

// ExtractorOption sets one field of an ExtractorConfig under construction.
type ExtractorOption func(c *ExtractorConfig)

// WithResizeDims resizes every frame to exactly width x height.
func WithResizeDims(width, height int) ExtractorOption {
	return func(c *ExtractorConfig) { c.resizeDims = &Dims{Width: width, Height: height} }
}

// WithResizeScale multiplies both frame dimensions by scale.
func WithResizeScale(scale float64) ExtractorOption {
	return func(c *ExtractorConfig) { c.resizeScale = &scale }
}

// WithFPS samples frames at the given rate.
func WithFPS(fps float64) ExtractorOption {
	return func(c *ExtractorConfig) { c.fps = &fps }
}

// WithStartTime starts the extraction window at a "HH:MM:SS.mmm" offset.
func WithStartTime(start string) ExtractorOption {
	return func(c *ExtractorConfig) { c.startTime = &start }
}

// WithEndTime ends the extraction window at a "HH:MM:SS.mmm" offset (exclusive).
func WithEndTime(end string) ExtractorOption {
	return func(c *ExtractorConfig) { c.endTime = &end }
}

// WithMaxFrames caps the number of returned frames, keeping the earliest.
func WithMaxFrames(n int) ExtractorOption {
	return func(c *ExtractorConfig) { c.maxFrames = &n }
}

// WithOutputPath persists every returned frame under path.
func WithOutputPath(path string) ExtractorOption {
	return func(c *ExtractorConfig) { c.outputPath = path }
}

// NewExtractorConfig builds and validates an ExtractorConfig.
//
// Inputs:
//   - opts: Any number of ExtractorOption values. Later options override earlier ones.
//
// Outputs:
//   - *ExtractorConfig: The validated, immutable configuration.
//   - error: An InvalidConfig or InvalidTimeFormat *Error when validation fails.
func NewExtractorConfig(opts ...ExtractorOption) (*ExtractorConfig, error) {
	c := &ExtractorConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ExtractorConfig) validate() error {
	const op = "extractor-config"
	if c.resizeDims != nil && c.resizeScale != nil {
		return NewError(KindInvalidConfig, op, "resize_dims and resize_scale are mutually exclusive")
	}
	if c.resizeDims != nil && (c.resizeDims.Width < 1 || c.resizeDims.Height < 1) {
		return NewError(KindInvalidConfig, op, "resize_dims must be at least 1x1, got %dx%d", c.resizeDims.Width, c.resizeDims.Height)
	}
	if c.resizeScale != nil && (*c.resizeScale <= 0 || *c.resizeScale > 1) {
		return NewError(KindInvalidConfig, op, "resize_scale must be in (0, 1], got %v", *c.resizeScale)
	}
	if c.fps != nil && *c.fps <= 0 {
		return NewError(KindInvalidConfig, op, "fps must be > 0, got %v", *c.fps)
	}
	if c.maxFrames != nil && *c.maxFrames < 1 {
		return NewError(KindInvalidConfig, op, "max_frames must be >= 1, got %d", *c.maxFrames)
	}
	if c.startTime != nil {
		if _, err := ParseTimecode(*c.startTime); err != nil {
			return err
		}
	}
	if c.endTime != nil {
		if _, err := ParseTimecode(*c.endTime); err != nil {
			return err
		}
	}
	return nil
}

// ResizeDims returns the requested exact size, or nil.
func (c *ExtractorConfig) ResizeDims() *Dims {
	if c.resizeDims == nil {
		return nil
	}
	d := *c.resizeDims
	return &d
}

// ResizeScale returns the requested scale factor, or nil.
func (c *ExtractorConfig) ResizeScale() *float64 { return copyFloat(c.resizeScale) }

// FPS returns the requested sampling rate, or nil for the native rate.
func (c *ExtractorConfig) FPS() *float64 { return copyFloat(c.fps) }

// StartTime returns the window start string, or nil.
func (c *ExtractorConfig) StartTime() *string { return copyString(c.startTime) }

// EndTime returns the window end string, or nil.
func (c *ExtractorConfig) EndTime() *string { return copyString(c.endTime) }

// MaxFrames returns the frame cap, or nil.
func (c *ExtractorConfig) MaxFrames() *int {
	if c.maxFrames == nil {
		return nil
	}
	n := *c.maxFrames
	return &n
}

// OutputPath returns the persistence destination, or "".
func (c *ExtractorConfig) OutputPath() string { return c.outputPath }

// ResizeRequested reports whether frames need to go through the transformer.
func (c *ExtractorConfig) ResizeRequested() bool {
	return c.resizeDims != nil || c.resizeScale != nil
}

func copyFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func copyString(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
