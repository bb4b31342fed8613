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

// Package frames holds the pure, stateless steps of frame extraction: time
// range resolution, timestamp sampling, resizing and encoding. Nothing in this
// package performs I/O, so every function is safe to call concurrently.
package frames

import (
	"math"

	"github.com/jaycherian/gcp-go-video-analyzer/internal/core/model"
)

// ResolveTimeWindow turns optional start/end timecodes and the video duration
// into a clamped [start, end) window.
//
// Inputs:
//   - duration: Total video duration in seconds.
//   - startTime: Optional "HH:MM:SS.mmm" start. Nil means 0.
//   - endTime: Optional "HH:MM:SS.mmm" end. Nil means duration.
//
// Outputs:
//   - model.TimeWindow: The resolved window, always within [0, duration].
//   - error: InvalidTimeFormat for malformed strings, InvalidTimeRange when
//     start >= end after clamping.
func ResolveTimeWindow(duration float64, startTime, endTime *string) (model.TimeWindow, error) {
	const op = "resolve-time-window"
	start := 0.0
	end := duration
	if startTime != nil {
		v, err := model.ParseTimecode(*startTime)
		if err != nil {
			return model.TimeWindow{}, err
		}
		start = v
	}
	if endTime != nil {
		v, err := model.ParseTimecode(*endTime)
		if err != nil {
			return model.TimeWindow{}, err
		}
		end = v
	}
	start = clamp(start, 0, duration)
	end = clamp(end, 0, duration)
	if start >= end {
		return model.TimeWindow{}, model.NewError(model.KindInvalidTimeRange, op,
			"empty window %s..%s for a %s video",
			model.FormatTimecode(start), model.FormatTimecode(end), model.FormatTimecode(duration))
	}
	return model.TimeWindow{Start: start, End: end}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
